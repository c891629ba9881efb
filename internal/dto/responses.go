package dto

// Envelope единого формата успешного ответа: { "success": true, "data": ... }.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody описывает тело ошибки.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope единого формата ответа об ошибке:
// { "success": false, "error": { "message": ..., "code": ... } }.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// OK оборачивает полезную нагрузку в успешный конверт.
func OK(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

// Err оборачивает сообщение об ошибке в конверт.
func Err(message, code string) ErrorEnvelope {
	return ErrorEnvelope{Success: false, Error: ErrorBody{Message: message, Code: code}}
}

// Pagination метаданные постраничной выдачи.
type Pagination struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}
