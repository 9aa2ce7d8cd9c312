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

// stamp defaults a missing creation time to now.
func stamp(t domain.Time) any {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.Time
}

type Buyer struct {
	ID         domain.ID   `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Location   string      `json:"location"`
	Active     bool        `json:"active"`
	Orders     int         `json:"orders"`
	TotalSpent float64     `json:"totalSpent"`
	JoinedAt   domain.Time `json:"joinedAt"`
}

func buyers() kind[Buyer] {
	return kind[Buyer]{
		name:  "buyers",
		title: "Buyers",
		schema: listing.Schema[Buyer]{
			Resource: "buyers",
			ID:       id(func(b Buyer) domain.ID { return b.ID }),
			SetID:    func(b *Buyer, v string) { b.ID = domain.ID(v) },
			Search: []func(Buyer) string{
				func(b Buyer) string { return b.Name },
				func(b Buyer) string { return b.Email },
				func(b Buyer) string { return b.Phone },
			},
			Filters: map[string]func(Buyer) string{
				"status":   func(b Buyer) string { return activeLabel(b.Active) },
				"location": func(b Buyer) string { return b.Location },
			},
			Numbers: map[string]func(Buyer) float64{
				"totalSpent": func(b Buyer) float64 { return b.TotalSpent },
				"orders":     func(b Buyer) float64 { return float64(b.Orders) },
			},
			Dates: map[string]func(Buyer) time.Time{
				"joinedAt": date(func(b Buyer) domain.Time { return b.JoinedAt }),
			},
			Sorts: map[string]func(a, b Buyer) int{
				"name":       byText(func(b Buyer) string { return b.Name }),
				"totalSpent": byNumber(func(b Buyer) float64 { return b.TotalSpent }),
				"orders":     byNumber(func(b Buyer) int { return b.Orders }),
				"joinedAt":   byTime(func(b Buyer) domain.Time { return b.JoinedAt }),
			},
			Columns: []listing.Column[Buyer]{
				{Header: "ID", Value: func(b Buyer) string { return string(b.ID) }},
				{Header: "Name", Value: func(b Buyer) string { return b.Name }},
				{Header: "Email", Value: func(b Buyer) string { return b.Email }},
				{Header: "Phone", Value: func(b Buyer) string { return b.Phone }},
				{Header: "Location", Value: func(b Buyer) string { return b.Location }},
				{Header: "Status", Value: func(b Buyer) string { return activeLabel(b.Active) }},
				{Header: "Orders", Value: func(b Buyer) string { return strconv.Itoa(b.Orders) }},
				{Header: "Total Spent", Value: func(b Buyer) string { return money(b.TotalSpent) }},
				{Header: "Joined", Value: func(b Buyer) string { return utils.FormatDate(b.JoinedAt.Time) }},
			},
			Validate: func(b Buyer) error {
				return firstError(
					required("name", b.Name),
					validEmail(b.Email),
					nonNegative("totalSpent", b.TotalSpent),
				)
			},
		},
		table: repositories.Table[Buyer]{
			Name:   "buyers",
			Select: []string{"id", "name", "email", "COALESCE(phone,'')", "COALESCE(location,'')", "active", "orders_count", "total_spent", "created_at"},
			Insert: []string{"name", "email", "phone", "location", "active", "orders_count", "total_spent", "created_at"},
			Scan: func(s repositories.Scanner) (Buyer, error) {
				var b Buyer
				err := s.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.Location, &b.Active, &b.Orders, &b.TotalSpent, &b.JoinedAt)
				return b, err
			},
			Values: func(b Buyer) []any {
				return []any{b.Name, b.Email, repositories.NullIfEmpty(b.Phone), repositories.NullIfEmpty(b.Location), b.Active, b.Orders, b.TotalSpent, stamp(b.JoinedAt)}
			},
			Fields: map[string]string{
				"name": "name", "email": "email", "phone": "phone", "location": "location",
				"active": "active", "orders": "orders_count", "totalSpent": "total_spent", "joinedAt": "created_at",
			},
			Times: []string{"joinedAt"},
		},
	}
}

type Seller struct {
	ID        domain.ID   `json:"id"`
	Name      string      `json:"name"`
	StoreName string      `json:"storeName"`
	Email     string      `json:"email"`
	Category  string      `json:"category"`
	Status    string      `json:"status"`
	Rating    float64     `json:"rating"`
	Products  int         `json:"products"`
	Revenue   float64     `json:"revenue"`
	JoinedAt  domain.Time `json:"joinedAt"`
}

var sellerStatuses = []string{"active", "pending", "suspended"}

func sellers() kind[Seller] {
	return kind[Seller]{
		name:  "sellers",
		title: "Sellers",
		schema: listing.Schema[Seller]{
			Resource: "sellers",
			ID:       id(func(s Seller) domain.ID { return s.ID }),
			SetID:    func(s *Seller, v string) { s.ID = domain.ID(v) },
			Search: []func(Seller) string{
				func(s Seller) string { return s.Name },
				func(s Seller) string { return s.StoreName },
				func(s Seller) string { return s.Email },
			},
			Filters: map[string]func(Seller) string{
				"status":   func(s Seller) string { return s.Status },
				"category": func(s Seller) string { return s.Category },
			},
			Numbers: map[string]func(Seller) float64{
				"rating":  func(s Seller) float64 { return s.Rating },
				"revenue": func(s Seller) float64 { return s.Revenue },
			},
			Dates: map[string]func(Seller) time.Time{
				"joinedAt": date(func(s Seller) domain.Time { return s.JoinedAt }),
			},
			Sorts: map[string]func(a, b Seller) int{
				"storeName": byText(func(s Seller) string { return s.StoreName }),
				"rating":    byNumber(func(s Seller) float64 { return s.Rating }),
				"revenue":   byNumber(func(s Seller) float64 { return s.Revenue }),
				"products":  byNumber(func(s Seller) int { return s.Products }),
				"joinedAt":  byTime(func(s Seller) domain.Time { return s.JoinedAt }),
			},
			Columns: []listing.Column[Seller]{
				{Header: "ID", Value: func(s Seller) string { return string(s.ID) }},
				{Header: "Store", Value: func(s Seller) string { return s.StoreName }},
				{Header: "Owner", Value: func(s Seller) string { return s.Name }},
				{Header: "Email", Value: func(s Seller) string { return s.Email }},
				{Header: "Category", Value: func(s Seller) string { return s.Category }},
				{Header: "Status", Value: func(s Seller) string { return s.Status }},
				{Header: "Rating", Value: func(s Seller) string { return strconv.FormatFloat(s.Rating, 'f', 1, 64) }},
				{Header: "Products", Value: func(s Seller) string { return strconv.Itoa(s.Products) }},
				{Header: "Revenue", Value: func(s Seller) string { return money(s.Revenue) }},
				{Header: "Joined", Value: func(s Seller) string { return utils.FormatDate(s.JoinedAt.Time) }},
			},
			Validate: func(s Seller) error {
				return firstError(
					required("storeName", s.StoreName),
					validEmail(s.Email),
					oneOf("status", s.Status, sellerStatuses...),
					rating("rating", s.Rating),
				)
			},
		},
		table: repositories.Table[Seller]{
			Name:   "sellers",
			Select: []string{"id", "name", "store_name", "email", "COALESCE(category,'')", "status", "rating", "products_count", "revenue", "created_at"},
			Insert: []string{"name", "store_name", "email", "category", "status", "rating", "products_count", "revenue", "created_at"},
			Scan: func(sc repositories.Scanner) (Seller, error) {
				var s Seller
				err := sc.Scan(&s.ID, &s.Name, &s.StoreName, &s.Email, &s.Category, &s.Status, &s.Rating, &s.Products, &s.Revenue, &s.JoinedAt)
				return s, err
			},
			Values: func(s Seller) []any {
				return []any{s.Name, s.StoreName, s.Email, repositories.NullIfEmpty(s.Category), strings.ToLower(s.Status), s.Rating, s.Products, s.Revenue, stamp(s.JoinedAt)}
			},
			Fields: map[string]string{
				"name": "name", "storeName": "store_name", "email": "email", "category": "category",
				"status": "status", "rating": "rating", "products": "products_count", "revenue": "revenue", "joinedAt": "created_at",
			},
			Times: []string{"joinedAt"},
		},
	}
}

type Employer struct {
	ID          domain.ID   `json:"id"`
	CompanyName string      `json:"companyName"`
	ContactName string      `json:"contactName"`
	Email       string      `json:"email"`
	Industry    string      `json:"industry"`
	Location    string      `json:"location"`
	Status      string      `json:"status"`
	Verified    bool        `json:"verified"`
	JobsPosted  int         `json:"jobsPosted"`
	JoinedAt    domain.Time `json:"joinedAt"`
}

var employerStatuses = []string{"active", "pending", "suspended"}

func employers() kind[Employer] {
	return kind[Employer]{
		name:  "employers",
		title: "Employers",
		schema: listing.Schema[Employer]{
			Resource: "employers",
			ID:       id(func(e Employer) domain.ID { return e.ID }),
			SetID:    func(e *Employer, v string) { e.ID = domain.ID(v) },
			Search: []func(Employer) string{
				func(e Employer) string { return e.CompanyName },
				func(e Employer) string { return e.ContactName },
				func(e Employer) string { return e.Email },
			},
			Filters: map[string]func(Employer) string{
				"status":   func(e Employer) string { return e.Status },
				"industry": func(e Employer) string { return e.Industry },
				"verified": func(e Employer) string { return yesNo(e.Verified) },
			},
			Numbers: map[string]func(Employer) float64{
				"jobsPosted": func(e Employer) float64 { return float64(e.JobsPosted) },
			},
			Dates: map[string]func(Employer) time.Time{
				"joinedAt": date(func(e Employer) domain.Time { return e.JoinedAt }),
			},
			Sorts: map[string]func(a, b Employer) int{
				"companyName": byText(func(e Employer) string { return e.CompanyName }),
				"jobsPosted":  byNumber(func(e Employer) int { return e.JobsPosted }),
				"joinedAt":    byTime(func(e Employer) domain.Time { return e.JoinedAt }),
			},
			Columns: []listing.Column[Employer]{
				{Header: "ID", Value: func(e Employer) string { return string(e.ID) }},
				{Header: "Company", Value: func(e Employer) string { return e.CompanyName }},
				{Header: "Contact", Value: func(e Employer) string { return e.ContactName }},
				{Header: "Email", Value: func(e Employer) string { return e.Email }},
				{Header: "Industry", Value: func(e Employer) string { return e.Industry }},
				{Header: "Location", Value: func(e Employer) string { return e.Location }},
				{Header: "Status", Value: func(e Employer) string { return e.Status }},
				{Header: "Verified", Value: func(e Employer) string { return yesNo(e.Verified) }},
				{Header: "Jobs Posted", Value: func(e Employer) string { return strconv.Itoa(e.JobsPosted) }},
				{Header: "Joined", Value: func(e Employer) string { return utils.FormatDate(e.JoinedAt.Time) }},
			},
			Validate: func(e Employer) error {
				return firstError(
					required("companyName", e.CompanyName),
					validEmail(e.Email),
					oneOf("status", e.Status, employerStatuses...),
				)
			},
		},
		table: repositories.Table[Employer]{
			Name:   "employers",
			Select: []string{"id", "company_name", "COALESCE(contact_name,'')", "email", "COALESCE(industry,'')", "COALESCE(location,'')", "status", "verified", "jobs_posted", "created_at"},
			Insert: []string{"company_name", "contact_name", "email", "industry", "location", "status", "verified", "jobs_posted", "created_at"},
			Scan: func(s repositories.Scanner) (Employer, error) {
				var e Employer
				err := s.Scan(&e.ID, &e.CompanyName, &e.ContactName, &e.Email, &e.Industry, &e.Location, &e.Status, &e.Verified, &e.JobsPosted, &e.JoinedAt)
				return e, err
			},
			Values: func(e Employer) []any {
				return []any{e.CompanyName, repositories.NullIfEmpty(e.ContactName), e.Email, repositories.NullIfEmpty(e.Industry), repositories.NullIfEmpty(e.Location), strings.ToLower(e.Status), e.Verified, e.JobsPosted, stamp(e.JoinedAt)}
			},
			Fields: map[string]string{
				"companyName": "company_name", "contactName": "contact_name", "email": "email", "industry": "industry",
				"location": "location", "status": "status", "verified": "verified", "jobsPosted": "jobs_posted", "joinedAt": "created_at",
			},
			Times: []string{"joinedAt"},
		},
	}
}

func validEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ValidationError{Field: "email", Msg: "required"}
	}
	at := strings.Index(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return domain.ValidationError{Field: "email", Msg: "invalid address"}
	}
	return nil
}

func rating(field string, v float64) error {
	if v < 0 || v > 5 {
		return domain.ValidationError{Field: field, Msg: "must be between 0 and 5"}
	}
	return nil
}
