package models

// KPI — одна карточка показателя на дашборде.
type KPI struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Series — именованный ряд значений для графика платежей.
type Series struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// ChartBlock — подписи категорий и ряды одного графика.
type ChartBlock struct {
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// PaymentHistory — графики платежей в трёх разрезах.
type PaymentHistory struct {
	Day   ChartBlock `json:"day"`
	Week  ChartBlock `json:"week"`
	Month ChartBlock `json:"month"`
}

// RecentSubscription — строка таблицы последних подписок на дашборде.
type RecentSubscription struct {
	Client string  `json:"client"`
	Plan   string  `json:"plan"`
	Price  float64 `json:"price"`
	Start  string  `json:"start"`
	Status string  `json:"status"`
}

// RecentInvoice — строка таблицы последних счетов на дашборде.
type RecentInvoice struct {
	No     string  `json:"no"`
	Client string  `json:"client"`
	Amount float64 `json:"amount"`
	Due    string  `json:"due"`
	Status string  `json:"status"`
}

// DashboardData — полный ответ GET /dashboard/data.
type DashboardData struct {
	KPIs                []KPI                `json:"kpis"`
	PaymentHistory      PaymentHistory       `json:"paymentHistory"`
	RecentSubscriptions []RecentSubscription `json:"recentSubscriptions"`
	RecentInvoices      []RecentInvoice      `json:"recentInvoices"`
}

// ActiveSubscriptionStat — агрегат по активной подписке для расчёта MRR:
// длительность, цена и число назначенных клиентов.
type ActiveSubscriptionStat struct {
	Duration    string
	Price       float64
	ClientCount int
}
