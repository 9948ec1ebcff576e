package jwt

type Role int

type Operator struct {
	Id    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
