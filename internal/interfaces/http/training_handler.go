package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/application/usecase"
)

// TrainingHandler participantes de las sesiones.
type TrainingHandler struct {
	uc *usecase.TrainingUseCase
}

// NewTrainingHandler construye el handler.
func NewTrainingHandler(uc *usecase.TrainingUseCase) *TrainingHandler {
	return &TrainingHandler{uc: uc}
}

// ListParticipants GET /api/trainings/:id/participants
func (h *TrainingHandler) ListParticipants(c *fiber.Ctx) error {
	out, err := h.uc.ListParticipants(c.UserContext(), GetSession(c), param(c, "id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateParticipant godoc
// @Summary      Editar participante
// @Description  Sólo se modifican los campos presentes. Sin cambios no se escribe ni se audita.
// @Tags         trainings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                        true  "ID del participante"
// @Param        body  body  dto.UpdateParticipantRequest  true  "campos a modificar"
// @Success      200  {object}  dto.UpdateParticipantResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/participants/{id} [patch]
func (h *TrainingHandler) UpdateParticipant(c *fiber.Ctx) error {
	var in dto.UpdateParticipantRequest
	if done, err := parseBody(c, &in); done {
		return err
	}
	out, err := h.uc.UpdateParticipant(c.UserContext(), GetSession(c), param(c, "id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
