package observability

const (
	MUsecaseRequests     MetricKey = "usecase_requests_total"
	MUsecaseDuration     MetricKey = "usecase_duration_seconds"
	MHTTPRequests        MetricKey = "http_requests_total"
	MHTTPRequestDuration MetricKey = "http_request_duration_seconds"
	MReconcileItems      MetricKey = "availability_reconcile_items_total"
	MLowStock            MetricKey = "ingredient_low_stock_total"
	MOrdersPlaced        MetricKey = "orders_placed_total"
)
