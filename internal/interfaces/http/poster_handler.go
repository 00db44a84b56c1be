package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/application/poster"
)

// PosterHandler generación de pósters con IA.
type PosterHandler struct {
	svc *poster.Service
}

// NewPosterHandler construye el handler.
func NewPosterHandler(svc *poster.Service) *PosterHandler {
	return &PosterHandler{svc: svc}
}

// Generate godoc
// @Summary      Generar póster
// @Description  Los errores del proveedor se devuelven con su código y cuerpo.
// @Tags         poster
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.GeneratePosterRequest  true  "prompt y opciones"
// @Success      200  {object}  poster.Result
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/posters [post]
func (h *PosterHandler) Generate(c *fiber.Ctx) error {
	var in dto.GeneratePosterRequest
	if done, err := parseBody(c, &in); done {
		return err
	}
	out, err := h.svc.Generate(c.UserContext(), GetSession(c), poster.Request{
		Prompt:    in.Prompt,
		Model:     in.Model,
		Width:     in.Width,
		Height:    in.Height,
		ImageURL:  in.ImageURL,
		Watermark: in.Watermark,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Prompt godoc
// @Summary      Componer el prompt de un póster
// @Description  Con training_id los datos se leen de la sesión; sin él se usan los del cuerpo.
// @Tags         poster
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.PosterPromptRequest  true  "sesión o datos del curso"
// @Success      200  {object}  dto.PosterPromptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/posters/prompt [post]
func (h *PosterHandler) Prompt(c *fiber.Ctx) error {
	var in dto.PosterPromptRequest
	if done, err := parseBody(c, &in); done {
		return err
	}
	if in.TrainingID != "" {
		prompt, err := h.svc.PromptForTraining(c.UserContext(), in.TrainingID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(dto.PosterPromptResponse{Prompt: prompt})
	}
	return c.JSON(dto.PosterPromptResponse{Prompt: poster.GeneratePosterPrompt(poster.Training{
		Name:      in.Name,
		StartDate: in.StartDate,
		Location:  in.Location,
		Presenter: in.Presenter,
	})})
}
