// Package queue trabajos en segundo plano sobre asynq (Redis): alta masiva de cuentas.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/training-crm-api/internal/application/audit"
	"github.com/jhoicas/training-crm-api/internal/application/importer"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
)

const (
	// QueueProvisioning cola de altas; el worker la procesa con concurrencia 1.
	QueueProvisioning = "provisioning"
	// TaskProvisionAccounts tipo de tarea de alta masiva.
	TaskProvisionAccounts = "accounts:provision"
)

// NewProvisionAccountsTask serializa el trabajo de alta.
func NewProvisionAccountsTask(job importer.ProvisioningJob) (*asynq.Task, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("serializar trabajo de alta: %w", err)
	}
	return asynq.NewTask(TaskProvisionAccounts, data), nil
}

// ProvisionHandler ejecuta las altas encoladas por la importación y las audita en nombre de quien importó.
type ProvisionHandler struct {
	provisioner importer.AccountProvisioner
	auditor     importer.Auditor
	log         zerolog.Logger
}

// NewProvisionHandler construye el handler.
func NewProvisionHandler(provisioner importer.AccountProvisioner, auditor importer.Auditor, log zerolog.Logger) *ProvisionHandler {
	return &ProvisionHandler{provisioner: provisioner, auditor: auditor, log: log}
}

// ProcessTask implementa asynq.Handler. Un payload ilegible no se reintenta.
func (h *ProvisionHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var job importer.ProvisioningJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		h.log.Error().Err(err).Msg("queue: payload de alta ilegible")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	taskID, _ := asynq.GetTaskID(ctx)
	log := h.log.With().Str("task_id", taskID).Str("role", job.Role).Int("people", len(job.People)).Logger()
	log.Info().Msg("queue: alta masiva iniciada")

	res := h.provisioner.BatchCreateAccounts(ctx, job.People, job.Role)

	sess := permission.NewSession(permission.Principal{
		UserID: job.ActorID,
		Name:   job.ActorName,
		Email:  job.Email,
	}, nil)
	h.auditor.LogAction(ctx, sess, audit.ActionInput{
		Action:       audit.ActionAccountCreate,
		ResourceType: audit.ResourceUser,
		ResourceID:   taskID,
		Details: map[string]any{
			"role":    job.Role,
			"created": res.Created,
			"skipped": res.Skipped,
			"failed":  res.Failed,
			"summary": res.Summary,
			"job_id":  taskID,
		},
	})

	if w := t.ResultWriter(); w != nil {
		data, err := json.Marshal(res)
		if err == nil {
			_, err = w.Write(data)
		}
		if err != nil {
			log.Warn().Err(err).Msg("queue: guardar resultado del trabajo")
		}
	}
	log.Info().Str("summary", res.Summary).Msg("queue: alta masiva finalizada")
	return nil
}
