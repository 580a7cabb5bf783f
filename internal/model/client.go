package model

import "time"

// Client: учётная запись пользователя (таблица clients).
type Client struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	FirstName     string     `json:"fname"`
	LastName      string     `json:"lname"`
	Suffix        string     `json:"suffix,omitempty"`
	ContactNumber string     `json:"contact_number,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	RoleID        *int       `json:"role_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ClientPublic: то, что уходит клиенту после входа/регистрации (без хэша пароля).
type ClientPublic struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FirstName     string     `json:"fname"`
	LastName      string     `json:"lname"`
	Suffix        string     `json:"suffix,omitempty"`
	ContactNumber string     `json:"contact_number,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	RoleID        *int       `json:"role_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (c *Client) ToPublic() ClientPublic {
	return ClientPublic{
		ID:            c.ID,
		Username:      c.Username,
		Email:         c.Email,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Suffix:        c.Suffix,
		ContactNumber: c.ContactNumber,
		DateOfBirth:   c.DateOfBirth,
		RoleID:        c.RoleID,
		CreatedAt:     c.CreatedAt,
	}
}
