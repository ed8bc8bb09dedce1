package dto

type CreateClientRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Address  *string `json:"address" validate:"omitempty,max=500"`
	Currency string  `json:"currency" validate:"omitempty,len=3,alpha"`
}

type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description"`
	ClientID    *string `json:"client_id" validate:"omitempty,uuid"`
	StartDate   *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateProjectStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE ON_HOLD COMPLETED ARCHIVED"`
}

type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=300"`
	Description *string  `json:"description"`
	Status      string   `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *string  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	AssigneeIDs []string `json:"assignee_ids" validate:"omitempty,dive,uuid"`
}

type UpdateTaskRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string  `json:"description"`
	Status      *string  `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE"`
	Priority    *string  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *string  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	AssigneeIDs []string `json:"assignee_ids" validate:"omitempty,dive,uuid"`
}

type StartTimerRequest struct {
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsBillable  *bool   `json:"is_billable"`
}
