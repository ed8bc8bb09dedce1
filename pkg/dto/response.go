package dto

// Response is the envelope every endpoint answers with, errors included.
type Response struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

func NewResponse(statusCode int, message string, data interface{}) Response {
	return Response{
		Success:    statusCode < 400,
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	}
}
