package ports

import "context"

// PosterRequest cuerpo enviado al proxy de generación de pósters.
type PosterRequest struct {
	Prompt    string `json:"prompt"`
	Model     string `json:"model"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Watermark bool   `json:"watermark"`
}

// PosterImage imagen generada: URL o base64.
type PosterImage struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

// PosterResponse respuesta del proveedor reenviada por el proxy.
type PosterResponse struct {
	Created int64         `json:"created"`
	Data    []PosterImage `json:"data"`
}

// PosterGenerator puerto de salida hacia el proxy. No reintenta.
// Respuestas no 2xx devuelven *domain.NetworkError con el estado y el cuerpo tal cual.
type PosterGenerator interface {
	GeneratePoster(ctx context.Context, req PosterRequest) (*PosterResponse, error)
}

// ImageRequest cuerpo que el proxy envía al proveedor de imágenes.
type ImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	Image          string `json:"image,omitempty"`
	Watermark      bool   `json:"watermark"`
	ResponseFormat string `json:"response_format"`
}

// ImageProvider puerto de salida del proxy hacia el proveedor. Devuelve estado y cuerpo sin interpretar.
type ImageProvider interface {
	Generate(ctx context.Context, req ImageRequest) (status int, body []byte, err error)
}
