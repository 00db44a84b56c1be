package usecase

import (
	"context"

	"github.com/jhoicas/training-crm-api/internal/application/dto"
	"github.com/jhoicas/training-crm-api/internal/domain"
	"github.com/jhoicas/training-crm-api/internal/domain/entity"
	"github.com/jhoicas/training-crm-api/internal/domain/permission"
	"github.com/jhoicas/training-crm-api/internal/domain/repository"
)

// CustomerUseCase consulta de clientes. Un vendedor sólo ve los clientes a su nombre.
type CustomerUseCase struct {
	repo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo}
}

// List clientes paginados. Requiere customer_view.
func (uc *CustomerUseCase) List(ctx context.Context, sess permission.Session, q dto.CustomerListQuery) (*dto.CustomerListResponse, error) {
	if !sess.HasPermission(permission.CustomerView) {
		return nil, domain.ErrForbidden
	}
	f := repository.CustomerFilter{Search: q.Search}
	if sess.Role == entity.RoleSalesperson {
		f.SalespersonName = sess.DisplayName()
	}
	page := dto.NewPageRequest(q.Limit, q.Offset)

	list, err := uc.repo.List(ctx, f, page.Limit, page.Offset)
	if err != nil {
		return nil, &domain.BackendError{Op: "listar clientes", Message: "读取客户失败", Err: err}
	}
	total, err := uc.repo.Count(ctx, f)
	if err != nil {
		return nil, &domain.BackendError{Op: "contar clientes", Message: "读取客户失败", Err: err}
	}
	out := &dto.CustomerListResponse{
		Items: make([]dto.CustomerResponse, 0, len(list)),
		Page:  page.Response(total),
	}
	for _, c := range list {
		out.Items = append(out.Items, toCustomerResponse(c))
	}
	return out, nil
}

func toCustomerResponse(c *entity.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:              c.ID,
		Name:            c.Name,
		Company:         c.Company,
		Phone:           c.Phone,
		Email:           c.Email,
		Position:        c.Position,
		Location:        c.Location,
		SalespersonName: c.SalespersonName,
		TrainingName:    c.TrainingName,
		TrainingDate:    c.TrainingDate,
		Amount:          c.Amount,
		Paid:            c.Paid,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
	}
}
