package models

// Статусы заявок на ремонт
const (
	RequestStatusPending    = "pending"
	RequestStatusAccepted   = "accepted"
	RequestStatusInProgress = "in_progress"
	RequestStatusCompleted  = "completed"
	RequestStatusCancelled  = "cancelled"
)

// Роли пользователей
const (
	RoleCustomer = "customer"
	RoleMechanic = "mechanic"
)

// Статусы верификации механика
const (
	VerificationStatusPending  = "pending"
	VerificationStatusApproved = "approved"
	VerificationStatusRejected = "rejected"
)

// ValidRequestStatuses список валидных статусов заявок
var ValidRequestStatuses = map[string]struct{}{
	RequestStatusPending:    {},
	RequestStatusAccepted:   {},
	RequestStatusInProgress: {},
	RequestStatusCompleted:  {},
	RequestStatusCancelled:  {},
}

// RequestTransitions описывает допустимые переходы статусов заявки.
// Терминальные статусы (completed, cancelled) не имеют исходящих переходов.
var RequestTransitions = map[string]map[string]struct{}{
	RequestStatusPending: {
		RequestStatusAccepted:  {},
		RequestStatusCancelled: {},
	},
	RequestStatusAccepted: {
		RequestStatusInProgress: {},
		RequestStatusCancelled:  {},
	},
	RequestStatusInProgress: {
		RequestStatusCompleted: {},
	},
	RequestStatusCompleted: {},
	RequestStatusCancelled: {},
}

// CanTransition проверяет, допустим ли переход заявки из одного статуса в другой.
func CanTransition(from, to string) bool {
	allowed, ok := RequestTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsTerminalStatus проверяет, является ли статус терминальным.
func IsTerminalStatus(status string) bool {
	return status == RequestStatusCompleted || status == RequestStatusCancelled
}
