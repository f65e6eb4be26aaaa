package service

import "errors"

// Erros de negócio das assinaturas. A camada HTTP decide o status de cada um.
var (
	ErrPlanNotFound                = errors.New("plano não encontrado")
	ErrDuplicateActiveSubscription = errors.New("já existe uma subscrição ativa")
	ErrSubscriptionNotFound        = errors.New("subscrição não encontrada")
	ErrInvalidWebhook              = errors.New("falha na verificação do webhook")
)
