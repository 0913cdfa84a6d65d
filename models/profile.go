package models

// Profile is a customer record. Payments are reconciled against it by
// email, phone or card fingerprint.
type Profile struct {
	ID             int64  `db:"id" json:"id"`
	Email          string `db:"email" json:"email"`
	Phone          string `db:"phone" json:"phone"`
	FullName       string `db:"full_name" json:"full_name"`
	TelegramUserID *int64 `db:"telegram_user_id" json:"telegram_user_id,omitempty"`
	CreatedAt      string `db:"created_at" json:"created_at"`
}
