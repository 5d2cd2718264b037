package models

type User struct {
	ID        string `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"-" db:"password"` // bcrypt hash, never serialized
	Name      string `json:"name" db:"name"`
	RoleID    int    `json:"roleId" db:"role_id"` // 1 admin, 2 manager, 3 driver, 4 customer
	Phone     string `json:"phone,omitempty" db:"phone"`
	Address   string `json:"address,omitempty" db:"address"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	RoleID    int    `json:"roleId"`
	CreatedAt int64  `json:"created_at"`
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt,
	}
}

// ProfileResponse is the shape of GET /profile.
type ProfileResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    int    `json:"role"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func (u *User) ToProfileResponse() ProfileResponse {
	return ProfileResponse{
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.RoleID,
		Phone:   u.Phone,
		Address: u.Address,
	}
}
