package domain

import (
	"context"
	"errors"
)

type CreateDebtorRequest struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

type Service interface {
	Create(ctx context.Context, req CreateDebtorRequest) (Debtor, error)
	GetByID(ctx context.Context, id string) (Debtor, error)
	List(ctx context.Context) ([]Debtor, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
