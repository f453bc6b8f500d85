package staff

type LoginRequest struct {
	Login string `json:"login" validate:"required"`
	Senha string `json:"senha" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Usuario     *User  `json:"usuario"`
}

type CreateUserRequest struct {
	Login string  `json:"login" validate:"required"`
	Nome  string  `json:"nome" validate:"required"`
	Email *string `json:"email,omitempty"`
	Senha string  `json:"senha" validate:"required"`
	Tipo  string  `json:"tipo,omitempty"`
}

type UpdateUserRequest struct {
	Nome  *string `json:"nome,omitempty"`
	Email *string `json:"email,omitempty"`
	Tipo  *string `json:"tipo,omitempty"`
	Ativo *bool   `json:"ativo,omitempty"`
	Senha *string `json:"senha,omitempty"`
}
