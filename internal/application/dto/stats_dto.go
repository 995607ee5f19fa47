package dto

import "time"

// StatsResponse resumen para el panel de administración.
type StatsResponse struct {
	TotalUsers      int64                       `json:"totalUsers"`
	ActiveLastWeek  int64                       `json:"activeLastWeek"`
	ActiveLastMonth int64                       `json:"activeLastMonth"`
	ByRole          map[string]int64            `json:"byRole"`
	ByRoleAndStatus map[string]map[string]int64 `json:"byRoleAndStatus"`
}

// ActiveRangeResponse usuarios con acceso dentro del rango.
type ActiveRangeResponse struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Count int64     `json:"count"`
}
