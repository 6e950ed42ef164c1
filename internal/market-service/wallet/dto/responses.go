package dto

type ReserveResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type CreditResponse struct {
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}
