// Package ai contiene los adaptadores HTTP hacia servicios de generación de imágenes:
// el cliente del proxy de pósters (usado por la API) y el proveedor de imágenes (usado por el proxy).
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/training-crm-api/internal/application/ports"
	"github.com/jhoicas/training-crm-api/internal/domain"
)

// Verificar en tiempo de compilación que PosterProxyClient implementa PosterGenerator.
var _ ports.PosterGenerator = (*PosterProxyClient)(nil)

// maxResponseBytes tope de lectura de respuestas (las imágenes en base64 pueden ser grandes).
const maxResponseBytes = 32 << 20

// PosterProxyClient llama a POST <proxy>/generate-poster. Una sola llamada, sin reintentos.
type PosterProxyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPosterProxyClient construye el cliente. timeout <= 0 usa 90 s (la generación es lenta).
func NewPosterProxyClient(baseURL string, timeout time.Duration) *PosterProxyClient {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &PosterProxyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GeneratePoster envía la petición al proxy. Respuestas no 2xx devuelven *domain.NetworkError
// con el estado y el cuerpo tal cual los devolvió el proxy.
func (c *PosterProxyClient) GeneratePoster(ctx context.Context, in ports.PosterRequest) (*ports.PosterResponse, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("poster: POSTER_PROXY_URL no configurado")
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("poster: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-poster", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("poster: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.NetworkError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.NetworkError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out ports.PosterResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("poster: deserializar respuesta: %w", err)
	}
	return &out, nil
}
