package dto

type CreateTagRequest struct {
	Name  string  `json:"name" validate:"required,max=50"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}
