package model

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the body of POST /auth/register. ConfirmPassword never
// leaves the client.
type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=30"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" validate:"omitempty,eqfield=Password"`
	Role            string `json:"role,omitempty" validate:"omitempty,oneof=student admin"`
}

// ProfileUpdate is the body of PATCH /auth/profile. Nil fields are left alone.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

// CreateAdminInput is the body of POST /auth/admin.
type CreateAdminInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ChatRequest is a message to the support chatbot.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// ChatResponse is the chatbot's answer.
type ChatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// MessageResponse is the generic `{message}` acknowledgement.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}

// DashboardStats summarises moderation state for admins.
type DashboardStats struct {
	TotalReports      int                  `json:"totalReports"`
	FlaggedReports    int                  `json:"flaggedReports"`
	TotalPosts        int                  `json:"totalPosts"`
	FlaggedPosts      int                  `json:"flaggedPosts"`
	ReportsByStatus   map[ReportStatus]int `json:"reportsByStatus"`
	ReportsBySeverity map[string]int       `json:"reportsBySeverity"`
}
