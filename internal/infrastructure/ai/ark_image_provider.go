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
)

var _ ports.ImageProvider = (*ArkImageProvider)(nil)

// DefaultArkBaseURL endpoint del proveedor (API compatible con OpenAI images).
const DefaultArkBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// ArkImageProvider cliente de POST <base>/images/generations con credencial bearer.
// Devuelve estado y cuerpo sin interpretar: el proxy los reenvía tal cual.
type ArkImageProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewArkImageProvider construye el cliente. baseURL vacío usa DefaultArkBaseURL.
func NewArkImageProvider(baseURL, apiKey string, timeout time.Duration) *ArkImageProvider {
	if baseURL == "" {
		baseURL = DefaultArkBaseURL
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &ArkImageProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured indica si hay credencial.
func (p *ArkImageProvider) Configured() bool { return p.apiKey != "" }

// Generate llama al proveedor. err sólo se devuelve si no hubo respuesta HTTP.
func (p *ArkImageProvider) Generate(ctx context.Context, in ports.ImageRequest) (int, []byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, nil, fmt.Errorf("imagegen: serializar request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("imagegen: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, fmt.Errorf("imagegen: timeout o cancelación: %w", ctx.Err())
		}
		return 0, nil, fmt.Errorf("imagegen: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("imagegen: leer respuesta: %w", err)
	}
	return resp.StatusCode, raw, nil
}
