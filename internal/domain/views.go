package domain

// Read-model projections served by the aggregation reader. None of these are
// persisted; every call recomputes from the booking store.

type UserBooking struct {
	Booking
	Property *Property `json:"property,omitempty"`
}

type AdminBooking struct {
	Booking
	CustomerName   string    `json:"customer_name"`
	CustomerEmail  string    `json:"customer_email"`
	CustomerPhone  string    `json:"customer_phone"`
	CustomerAvatar string    `json:"customer_avatar"`
	Property       *Property `json:"property,omitempty"`
}

type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"dailyRevenue"`
}

type DashboardStats struct {
	TotalRevenue    float64        `json:"totalRevenue"`
	TotalUsers      int64          `json:"totalUsers"`
	TotalProperties int64          `json:"totalProperties"`
	TotalBookings   int64          `json:"totalBookings"`
	PendingBookings int64          `json:"pendingBookings"`
	ChartData       []DailyRevenue `json:"chartData"`
}
