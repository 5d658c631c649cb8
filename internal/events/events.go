// Package events turns contract and payment events published by the rental
// services into notifications.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Routing keys on the rental_events topic exchange.
const (
	KeyContractCreated    = "contract.created"
	KeyContractExpiring   = "contract.expiring"
	KeyContractTerminated = "contract.terminated"
	KeyPaymentDue         = "payment.due"
)

var RoutingKeys = []string{KeyContractCreated, KeyContractExpiring, KeyContractTerminated, KeyPaymentDue}

// ErrBadEvent marks a delivery that can never succeed: unknown key, bad JSON or missing fields.
var ErrBadEvent = errors.New("bad event")

type ContractEvent struct {
	ContractID uint   `json:"contract_id" validate:"required"`
	OwnerID    uint   `json:"owner_id" validate:"required"`
	TenantID   uint   `json:"tenant_id" validate:"required"`
	SpaceName  string `json:"space_name" validate:"required"`
}

type ContractExpiringEvent struct {
	ContractID      uint   `json:"contract_id" validate:"required"`
	TenantID        uint   `json:"tenant_id" validate:"required"`
	SpaceName       string `json:"space_name" validate:"required"`
	DaysUntilExpiry int    `json:"days_until_expiry" validate:"gte=0"`
}

type PaymentDueEvent struct {
	ContractID uint    `json:"contract_id" validate:"required"`
	TenantID   uint    `json:"tenant_id" validate:"required"`
	SpaceName  string  `json:"space_name" validate:"required"`
	Amount     float64 `json:"amount" validate:"gt=0"`
}

// Templates is implemented by *service.NotificationService.
type Templates interface {
	NotifyContractCreated(ctx context.Context, ownerID, tenantID, contractID uint, spaceName string) error
	NotifyContractExpiring(ctx context.Context, tenantID, contractID uint, spaceName string, daysUntilExpiry int) error
	NotifyContractTerminated(ctx context.Context, ownerID, tenantID, contractID uint, spaceName string) error
	NotifyPaymentDue(ctx context.Context, tenantID, contractID uint, spaceName string, amount float64) error
}

var validate = validator.New()

// Dispatch decodes body according to routingKey and calls the matching template.
func Dispatch(ctx context.Context, t Templates, routingKey string, body []byte) error {
	switch routingKey {
	case KeyContractCreated, KeyContractTerminated:
		var ev ContractEvent
		if err := decode(body, &ev); err != nil {
			return err
		}
		if routingKey == KeyContractCreated {
			return t.NotifyContractCreated(ctx, ev.OwnerID, ev.TenantID, ev.ContractID, ev.SpaceName)
		}
		return t.NotifyContractTerminated(ctx, ev.OwnerID, ev.TenantID, ev.ContractID, ev.SpaceName)
	case KeyContractExpiring:
		var ev ContractExpiringEvent
		if err := decode(body, &ev); err != nil {
			return err
		}
		return t.NotifyContractExpiring(ctx, ev.TenantID, ev.ContractID, ev.SpaceName, ev.DaysUntilExpiry)
	case KeyPaymentDue:
		var ev PaymentDueEvent
		if err := decode(body, &ev); err != nil {
			return err
		}
		return t.NotifyPaymentDue(ctx, ev.TenantID, ev.ContractID, ev.SpaceName, ev.Amount)
	default:
		return fmt.Errorf("%w: unknown routing key %q", ErrBadEvent, routingKey)
	}
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadEvent, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadEvent, err)
	}
	return nil
}
