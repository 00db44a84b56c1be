package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/training-crm-api/internal/application/importer"
	"github.com/jhoicas/training-crm-api/internal/application/provisioning"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/pkg/config"
)

var _ importer.JobEnqueuer = (*Client)(nil)

const (
	// resultRetention tiempo que Redis conserva el resultado de un trabajo terminado.
	resultRetention = 24 * time.Hour
	// perAccountBudget llamadas al proveedor de identidades y a la BD por cada alta.
	perAccountBudget = 5 * time.Second
	minTaskTimeout   = 30 * time.Minute
)

// TaskTimeout plazo de un alta masiva de n personas al ritmo configurado. Nunca baja de 30 minutos.
func TaskTimeout(n int, timing provisioning.Config) time.Duration {
	d := time.Duration(n) * (timing.SettleDelay + perAccountBudget)
	if timing.PauseEvery > 0 {
		d += time.Duration(n/timing.PauseEvery) * timing.Pause
	}
	if d < minTaskTimeout {
		return minTaskTimeout
	}
	return d
}

// RedisOpt traduce la configuración a opciones de asynq.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// JobStatus estado de un trabajo de alta consultado por la API.
type JobStatus struct {
	ID     string                    `json:"id"`
	State  string                    `json:"state"`
	Error  string                    `json:"error,omitempty"`
	Result *provisioning.BatchResult `json:"result,omitempty"`
}

// Client encola trabajos y consulta su estado.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	rdb       *redis.Client
	timing    provisioning.Config
}

// ClientOption configura el cliente.
type ClientOption func(*Client)

// WithProvisioningTiming ritmo de altas del worker, para calcular el plazo de cada trabajo.
func WithProvisioningTiming(timing provisioning.Config) ClientOption {
	return func(c *Client) { c.timing = timing }
}

// NewClient construye el cliente de la cola.
func NewClient(cfg config.RedisConfig, opts ...ClientOption) *Client {
	opt := RedisOpt(cfg)
	c := &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		rdb:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// EnqueueProvisioning encola el alta masiva. Sin reintentos automáticos: un reintento repetiría altas.
func (c *Client) EnqueueProvisioning(ctx context.Context, job importer.ProvisioningJob) (string, error) {
	task, err := NewProvisionAccountsTask(job)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueProvisioning),
		asynq.MaxRetry(0),
		asynq.Retention(resultRetention),
		asynq.Timeout(TaskTimeout(len(job.People), c.timing)),
	)
	if err != nil {
		return "", fmt.Errorf("encolar %s: %w", TaskProvisionAccounts, err)
	}
	return info.ID, nil
}

// JobStatus consulta un trabajo de alta por id.
func (c *Client) JobStatus(_ context.Context, id string) (*JobStatus, error) {
	info, err := c.inspector.GetTaskInfo(QueueProvisioning, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("consultar trabajo %s: %w", id, err)
	}
	st := &JobStatus{ID: info.ID, State: info.State.String(), Error: info.LastErr}
	if len(info.Result) > 0 {
		var res provisioning.BatchResult
		if err := json.Unmarshal(info.Result, &res); err == nil {
			st.Result = &res
		}
	}
	return st, nil
}

// Ping verifica la conexión con Redis (health check).
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close libera las conexiones.
func (c *Client) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close(), c.rdb.Close())
}
