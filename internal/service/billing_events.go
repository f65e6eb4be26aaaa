package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
	"github.com/willjrcristo/refresh-api/internal/domain"
)

// Chaves de metadata que ligam a subscrição da Stripe à subscrição local.
const (
	MetadataSubscriptionID = "subscription_id"
	MetadataUserID         = "user_id"
)

// Lifecycle são as transições que o provedor de pagamentos pode disparar.
type Lifecycle interface {
	Cancel(ctx context.Context, userID, subscriptionID string) (*domain.Subscription, error)
	Expire(ctx context.Context, userID, subscriptionID string) error
}

// BillingEvents replica nas subscrições locais os eventos de subscrição da
// Stripe.
type BillingEvents struct {
	lifecycle     Lifecycle
	webhookSecret string
}

// NewBillingEvents cria o processador de webhooks com o segredo de assinatura
// do endpoint.
func NewBillingEvents(lifecycle Lifecycle, webhookSecret string) *BillingEvents {
	return &BillingEvents{
		lifecycle:     lifecycle,
		webhookSecret: webhookSecret,
	}
}

// HandleStripeWebhook verifica a assinatura do payload e aplica o evento.
// Assinatura inválida devolve ErrInvalidWebhook. Eventos sem os metadados da
// subscrição local são só registrados.
func (b *BillingEvents) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, b.webhookSecret)
	if err != nil {
		slog.Warn("Assinatura do webhook da Stripe inválida", "error", err)
		return ErrInvalidWebhook
	}

	switch event.Type {
	case "customer.subscription.updated", "customer.subscription.deleted":
	default:
		slog.Info("Webhook da Stripe recebido, mas não tratado", "event_type", event.Type)
		return nil
	}

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decodificar subscrição da stripe: %w", err)
	}

	subscriptionID := sub.Metadata[MetadataSubscriptionID]
	userID := sub.Metadata[MetadataUserID]
	if subscriptionID == "" || userID == "" {
		slog.Info("Subscrição da Stripe sem vínculo local", "event_type", event.Type, "stripe_subscription", sub.ID)
		return nil
	}

	switch event.Type {
	case "customer.subscription.deleted":
		err = b.lifecycle.Expire(ctx, userID, subscriptionID)
	default:
		if !sub.CancelAtPeriodEnd {
			return nil
		}
		_, err = b.lifecycle.Cancel(ctx, userID, subscriptionID)
	}

	if errors.Is(err, ErrSubscriptionNotFound) {
		// Responder erro faria a Stripe reenviar um evento que nunca vai casar.
		slog.Warn("Evento da Stripe para subscrição local inexistente",
			"event_type", event.Type,
			"subscription_id", subscriptionID,
			"user_id", userID)
		return nil
	}
	return err
}
