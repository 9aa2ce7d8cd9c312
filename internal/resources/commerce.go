package resources

import (
	"strconv"
	"strings"
	"time"

	"marketadmin/internal/domain"
	"marketadmin/internal/listing"
	"marketadmin/internal/repositories"
	"marketadmin/internal/utils"
)

type Order struct {
	ID            domain.ID   `json:"id"`
	OrderNumber   string      `json:"orderNumber"`
	BuyerID       domain.ID   `json:"buyerId"`
	BuyerName     string      `json:"buyerName"`
	SellerID      domain.ID   `json:"sellerId"`
	Product       string      `json:"product"`
	Quantity      int         `json:"quantity"`
	Amount        float64     `json:"amount"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"paymentStatus"`
	PlacedAt      domain.Time `json:"placedAt"`
}

var (
	orderStatuses   = []string{"pending", "processing", "shipped", "delivered", "cancelled"}
	paymentStatuses = []string{"unpaid", "paid", "refunded"}
)

func orders() kind[Order] {
	return kind[Order]{
		name:  "orders",
		title: "Orders",
		roles: []string{domain.RoleSeller, domain.RoleBuyer},
		schema: listing.Schema[Order]{
			Resource: "orders",
			ID:       id(func(o Order) domain.ID { return o.ID }),
			SetID:    func(o *Order, v string) { o.ID = domain.ID(v) },
			Search: []func(Order) string{
				func(o Order) string { return o.OrderNumber },
				func(o Order) string { return o.BuyerName },
				func(o Order) string { return o.Product },
			},
			Filters: map[string]func(Order) string{
				"status":        func(o Order) string { return o.Status },
				"paymentStatus": func(o Order) string { return o.PaymentStatus },
			},
			Numbers: map[string]func(Order) float64{
				"amount":   func(o Order) float64 { return o.Amount },
				"quantity": func(o Order) float64 { return float64(o.Quantity) },
			},
			Dates: map[string]func(Order) time.Time{
				"placedAt": date(func(o Order) domain.Time { return o.PlacedAt }),
			},
			Sorts: map[string]func(a, b Order) int{
				"placedAt":    byTime(func(o Order) domain.Time { return o.PlacedAt }),
				"amount":      byNumber(func(o Order) float64 { return o.Amount }),
				"orderNumber": byText(func(o Order) string { return o.OrderNumber }),
			},
			Columns: []listing.Column[Order]{
				{Header: "Order", Value: func(o Order) string { return o.OrderNumber }},
				{Header: "Buyer", Value: func(o Order) string { return o.BuyerName }},
				{Header: "Product", Value: func(o Order) string { return o.Product }},
				{Header: "Qty", Value: func(o Order) string { return strconv.Itoa(o.Quantity) }},
				{Header: "Amount", Value: func(o Order) string { return money(o.Amount) }},
				{Header: "Status", Value: func(o Order) string { return o.Status }},
				{Header: "Payment", Value: func(o Order) string { return o.PaymentStatus }},
				{Header: "Placed", Value: func(o Order) string { return utils.FormatDateTime(o.PlacedAt.Time) }},
			},
			Validate: func(o Order) error {
				return firstError(
					required("product", o.Product),
					positive("quantity", float64(o.Quantity)),
					nonNegative("amount", o.Amount),
					oneOf("status", o.Status, orderStatuses...),
					oneOf("paymentStatus", o.PaymentStatus, paymentStatuses...),
				)
			},
		},
		table: repositories.Table[Order]{
			Name:   "orders",
			Select: []string{"id", "order_number", "buyer_id", "COALESCE(buyer_name,'')", "seller_id", "product_name", "quantity", "amount", "status", "payment_status", "created_at"},
			Insert: []string{"order_number", "buyer_id", "buyer_name", "seller_id", "product_name", "quantity", "amount", "status", "payment_status", "created_at"},
			Scan: func(s repositories.Scanner) (Order, error) {
				var o Order
				err := s.Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.BuyerName, &o.SellerID, &o.Product, &o.Quantity, &o.Amount, &o.Status, &o.PaymentStatus, &o.PlacedAt)
				return o, err
			},
			Values: func(o Order) []any {
				return []any{o.OrderNumber, string(o.BuyerID), repositories.NullIfEmpty(o.BuyerName), string(o.SellerID), o.Product, o.Quantity, o.Amount, strings.ToLower(o.Status), strings.ToLower(o.PaymentStatus), stamp(o.PlacedAt)}
			},
			Fields: map[string]string{
				"orderNumber": "order_number", "buyerName": "buyer_name", "product": "product_name", "quantity": "quantity",
				"amount": "amount", "status": "status", "paymentStatus": "payment_status", "placedAt": "created_at",
			},
			Times:  []string{"placedAt"},
			Owners: map[string]string{domain.RoleSeller: "seller_id", domain.RoleBuyer: "buyer_id"},
			Order:  "created_at DESC, id DESC",
		},
	}
}

type Earning struct {
	ID         domain.ID   `json:"id"`
	SellerID   domain.ID   `json:"sellerId"`
	OrderID    domain.ID   `json:"orderId"`
	Reference  string      `json:"reference"`
	Gross      float64     `json:"gross"`
	Commission float64     `json:"commission"`
	Net        float64     `json:"net"`
	Status     string      `json:"status"`
	EarnedAt   domain.Time `json:"earnedAt"`
}

var earningStatuses = []string{"pending", "available", "paid"}

// Earnings are computed upstream from orders; edits such as marking a
// payout stay on the screen until the next refresh.
func earnings() kind[Earning] {
	return kind[Earning]{
		name:     "earnings",
		title:    "Earnings",
		roles:    []string{domain.RoleSeller},
		readOnly: true,
		schema: listing.Schema[Earning]{
			Resource: "earnings",
			ID:       id(func(e Earning) domain.ID { return e.ID }),
			SetID:    func(e *Earning, v string) { e.ID = domain.ID(v) },
			Search: []func(Earning) string{
				func(e Earning) string { return e.Reference },
				func(e Earning) string { return string(e.OrderID) },
			},
			Filters: map[string]func(Earning) string{
				"status": func(e Earning) string { return e.Status },
			},
			Numbers: map[string]func(Earning) float64{
				"gross": func(e Earning) float64 { return e.Gross },
				"net":   func(e Earning) float64 { return e.Net },
			},
			Dates: map[string]func(Earning) time.Time{
				"earnedAt": date(func(e Earning) domain.Time { return e.EarnedAt }),
			},
			Sorts: map[string]func(a, b Earning) int{
				"earnedAt": byTime(func(e Earning) domain.Time { return e.EarnedAt }),
				"gross":    byNumber(func(e Earning) float64 { return e.Gross }),
				"net":      byNumber(func(e Earning) float64 { return e.Net }),
			},
			Columns: []listing.Column[Earning]{
				{Header: "Reference", Value: func(e Earning) string { return e.Reference }},
				{Header: "Order", Value: func(e Earning) string { return string(e.OrderID) }},
				{Header: "Gross", Value: func(e Earning) string { return money(e.Gross) }},
				{Header: "Commission", Value: func(e Earning) string { return money(e.Commission) }},
				{Header: "Net", Value: func(e Earning) string { return money(e.Net) }},
				{Header: "Status", Value: func(e Earning) string { return e.Status }},
				{Header: "Date", Value: func(e Earning) string { return utils.FormatDate(e.EarnedAt.Time) }},
			},
			Validate: func(e Earning) error {
				return firstError(
					nonNegative("gross", e.Gross),
					nonNegative("commission", e.Commission),
					oneOf("status", e.Status, earningStatuses...),
				)
			},
		},
		table: repositories.Table[Earning]{
			Name:   "seller_earnings",
			Select: []string{"id", "seller_id", "COALESCE(order_id,'')", "COALESCE(reference,'')", "gross_amount", "commission", "net_amount", "status", "earned_at"},
			Scan: func(s repositories.Scanner) (Earning, error) {
				var e Earning
				err := s.Scan(&e.ID, &e.SellerID, &e.OrderID, &e.Reference, &e.Gross, &e.Commission, &e.Net, &e.Status, &e.EarnedAt)
				return e, err
			},
			Owners: map[string]string{domain.RoleSeller: "seller_id"},
			Order:  "earned_at DESC, id DESC",
		},
	}
}

type Booking struct {
	ID           domain.ID   `json:"id"`
	BuyerID      domain.ID   `json:"buyerId"`
	SellerID     domain.ID   `json:"sellerId"`
	Service      string      `json:"service"`
	CustomerName string      `json:"customerName"`
	Date         domain.Time `json:"date"`
	Guests       int         `json:"guests"`
	Amount       float64     `json:"amount"`
	Status       string      `json:"status"`
}

var bookingStatuses = []string{"pending", "confirmed", "completed", "cancelled"}

func bookings() kind[Booking] {
	return kind[Booking]{
		name:  "bookings",
		title: "Bookings",
		roles: []string{domain.RoleSeller, domain.RoleBuyer},
		schema: listing.Schema[Booking]{
			Resource: "bookings",
			ID:       id(func(b Booking) domain.ID { return b.ID }),
			SetID:    func(b *Booking, v string) { b.ID = domain.ID(v) },
			Search: []func(Booking) string{
				func(b Booking) string { return b.Service },
				func(b Booking) string { return b.CustomerName },
			},
			Filters: map[string]func(Booking) string{
				"status": func(b Booking) string { return b.Status },
			},
			Numbers: map[string]func(Booking) float64{
				"amount": func(b Booking) float64 { return b.Amount },
				"guests": func(b Booking) float64 { return float64(b.Guests) },
			},
			Dates: map[string]func(Booking) time.Time{
				"date": date(func(b Booking) domain.Time { return b.Date }),
			},
			Sorts: map[string]func(a, b Booking) int{
				"date":   byTime(func(b Booking) domain.Time { return b.Date }),
				"amount": byNumber(func(b Booking) float64 { return b.Amount }),
			},
			Columns: []listing.Column[Booking]{
				{Header: "ID", Value: func(b Booking) string { return string(b.ID) }},
				{Header: "Service", Value: func(b Booking) string { return b.Service }},
				{Header: "Customer", Value: func(b Booking) string { return b.CustomerName }},
				{Header: "Date", Value: func(b Booking) string { return utils.FormatDateTime(b.Date.Time) }},
				{Header: "Guests", Value: func(b Booking) string { return strconv.Itoa(b.Guests) }},
				{Header: "Amount", Value: func(b Booking) string { return money(b.Amount) }},
				{Header: "Status", Value: func(b Booking) string { return b.Status }},
			},
			Validate: func(b Booking) error {
				if b.Date.IsZero() {
					return domain.ValidationError{Field: "date", Msg: "required"}
				}
				return firstError(
					required("service", b.Service),
					positive("guests", float64(b.Guests)),
					nonNegative("amount", b.Amount),
					oneOf("status", b.Status, bookingStatuses...),
				)
			},
		},
		table: repositories.Table[Booking]{
			Name:   "bookings",
			Select: []string{"id", "buyer_id", "seller_id", "service_name", "COALESCE(customer_name,'')", "booking_date", "guests", "amount", "status"},
			Insert: []string{"buyer_id", "seller_id", "service_name", "customer_name", "booking_date", "guests", "amount", "status"},
			Scan: func(s repositories.Scanner) (Booking, error) {
				var b Booking
				err := s.Scan(&b.ID, &b.BuyerID, &b.SellerID, &b.Service, &b.CustomerName, &b.Date, &b.Guests, &b.Amount, &b.Status)
				return b, err
			},
			Values: func(b Booking) []any {
				return []any{string(b.BuyerID), string(b.SellerID), b.Service, repositories.NullIfEmpty(b.CustomerName), b.Date, b.Guests, b.Amount, strings.ToLower(b.Status)}
			},
			Fields: map[string]string{
				"service": "service_name", "customerName": "customer_name", "date": "booking_date",
				"guests": "guests", "amount": "amount", "status": "status",
			},
			Times:  []string{"date"},
			Owners: map[string]string{domain.RoleSeller: "seller_id", domain.RoleBuyer: "buyer_id"},
			Order:  "booking_date DESC, id DESC",
		},
	}
}

type Review struct {
	ID        domain.ID   `json:"id"`
	Product   string      `json:"product"`
	SellerID  domain.ID   `json:"sellerId"`
	BuyerID   domain.ID   `json:"buyerId"`
	Reviewer  string      `json:"reviewer"`
	Rating    int         `json:"rating"`
	Comment   string      `json:"comment"`
	Status    string      `json:"status"`
	CreatedAt domain.Time `json:"createdAt"`
}

var reviewStatuses = []string{"published", "hidden", "flagged"}

func reviews() kind[Review] {
	return kind[Review]{
		name:  "reviews",
		title: "Reviews",
		roles: []string{domain.RoleSeller, domain.RoleBuyer},
		schema: listing.Schema[Review]{
			Resource: "reviews",
			ID:       id(func(r Review) domain.ID { return r.ID }),
			SetID:    func(r *Review, v string) { r.ID = domain.ID(v) },
			Search: []func(Review) string{
				func(r Review) string { return r.Product },
				func(r Review) string { return r.Reviewer },
				func(r Review) string { return r.Comment },
			},
			Filters: map[string]func(Review) string{
				"status": func(r Review) string { return r.Status },
				"rating": func(r Review) string { return strconv.Itoa(r.Rating) },
			},
			Numbers: map[string]func(Review) float64{
				"rating": func(r Review) float64 { return float64(r.Rating) },
			},
			Dates: map[string]func(Review) time.Time{
				"createdAt": date(func(r Review) domain.Time { return r.CreatedAt }),
			},
			Sorts: map[string]func(a, b Review) int{
				"createdAt": byTime(func(r Review) domain.Time { return r.CreatedAt }),
				"rating":    byNumber(func(r Review) int { return r.Rating }),
			},
			Columns: []listing.Column[Review]{
				{Header: "Product", Value: func(r Review) string { return r.Product }},
				{Header: "Reviewer", Value: func(r Review) string { return r.Reviewer }},
				{Header: "Rating", Value: func(r Review) string { return strconv.Itoa(r.Rating) }},
				{Header: "Comment", Value: func(r Review) string { return r.Comment }},
				{Header: "Status", Value: func(r Review) string { return r.Status }},
				{Header: "Date", Value: func(r Review) string { return utils.FormatDate(r.CreatedAt.Time) }},
			},
			Validate: func(r Review) error {
				if r.Rating < 1 || r.Rating > 5 {
					return domain.ValidationError{Field: "rating", Msg: "must be between 1 and 5"}
				}
				return firstError(
					required("product", r.Product),
					oneOf("status", r.Status, reviewStatuses...),
				)
			},
		},
		table: repositories.Table[Review]{
			Name:   "reviews",
			Select: []string{"id", "product_name", "seller_id", "buyer_id", "COALESCE(reviewer_name,'')", "rating", "COALESCE(comment,'')", "status", "created_at"},
			Insert: []string{"product_name", "seller_id", "buyer_id", "reviewer_name", "rating", "comment", "status", "created_at"},
			Scan: func(s repositories.Scanner) (Review, error) {
				var r Review
				err := s.Scan(&r.ID, &r.Product, &r.SellerID, &r.BuyerID, &r.Reviewer, &r.Rating, &r.Comment, &r.Status, &r.CreatedAt)
				return r, err
			},
			Values: func(r Review) []any {
				return []any{r.Product, string(r.SellerID), string(r.BuyerID), repositories.NullIfEmpty(r.Reviewer), r.Rating, repositories.NullIfEmpty(r.Comment), strings.ToLower(r.Status), stamp(r.CreatedAt)}
			},
			Fields: map[string]string{
				"product": "product_name", "reviewer": "reviewer_name", "rating": "rating",
				"comment": "comment", "status": "status", "createdAt": "created_at",
			},
			Times:  []string{"createdAt"},
			Owners: map[string]string{domain.RoleSeller: "seller_id", domain.RoleBuyer: "buyer_id"},
			Order:  "created_at DESC, id DESC",
		},
	}
}

func positive(field string, v float64) error {
	if v <= 0 {
		return domain.ValidationError{Field: field, Msg: "must be greater than zero"}
	}
	return nil
}
