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

type Schedule struct {
	ID       domain.ID   `json:"id"`
	OwnerID  domain.ID   `json:"ownerId"`
	Title    string      `json:"title"`
	Type     string      `json:"type"`
	StartsAt domain.Time `json:"startsAt"`
	EndsAt   domain.Time `json:"endsAt"`
	Location string      `json:"location"`
	Status   string      `json:"status"`
}

var (
	scheduleTypes    = []string{"delivery", "pickup", "interview", "meeting"}
	scheduleStatuses = []string{"scheduled", "completed", "cancelled"}
)

func schedules() kind[Schedule] {
	return kind[Schedule]{
		name:  "schedules",
		title: "Schedules",
		roles: []string{domain.RoleSeller, domain.RoleEmployer},
		schema: listing.Schema[Schedule]{
			Resource: "schedules",
			ID:       id(func(s Schedule) domain.ID { return s.ID }),
			SetID:    func(s *Schedule, v string) { s.ID = domain.ID(v) },
			Search: []func(Schedule) string{
				func(s Schedule) string { return s.Title },
				func(s Schedule) string { return s.Location },
			},
			Filters: map[string]func(Schedule) string{
				"type":   func(s Schedule) string { return s.Type },
				"status": func(s Schedule) string { return s.Status },
			},
			Dates: map[string]func(Schedule) time.Time{
				"startsAt": date(func(s Schedule) domain.Time { return s.StartsAt }),
			},
			Sorts: map[string]func(a, b Schedule) int{
				"startsAt": byTime(func(s Schedule) domain.Time { return s.StartsAt }),
				"title":    byText(func(s Schedule) string { return s.Title }),
			},
			Columns: []listing.Column[Schedule]{
				{Header: "Title", Value: func(s Schedule) string { return s.Title }},
				{Header: "Type", Value: func(s Schedule) string { return s.Type }},
				{Header: "Starts", Value: func(s Schedule) string { return utils.FormatDateTime(s.StartsAt.Time) }},
				{Header: "Ends", Value: func(s Schedule) string { return utils.FormatDateTime(s.EndsAt.Time) }},
				{Header: "Location", Value: func(s Schedule) string { return s.Location }},
				{Header: "Status", Value: func(s Schedule) string { return s.Status }},
			},
			Validate: func(s Schedule) error {
				if s.StartsAt.IsZero() {
					return domain.ValidationError{Field: "startsAt", Msg: "required"}
				}
				if !s.EndsAt.IsZero() && s.EndsAt.Before(s.StartsAt.Time) {
					return domain.ValidationError{Field: "endsAt", Msg: "must not be before startsAt"}
				}
				return firstError(
					required("title", s.Title),
					oneOf("type", s.Type, scheduleTypes...),
					oneOf("status", s.Status, scheduleStatuses...),
				)
			},
		},
		table: repositories.Table[Schedule]{
			Name:   "schedules",
			Select: []string{"id", "owner_id", "title", "type", "starts_at", "ends_at", "COALESCE(location,'')", "status"},
			Insert: []string{"owner_id", "title", "type", "starts_at", "ends_at", "location", "status"},
			Scan: func(sc repositories.Scanner) (Schedule, error) {
				var s Schedule
				err := sc.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Type, &s.StartsAt, &s.EndsAt, &s.Location, &s.Status)
				return s, err
			},
			Values: func(s Schedule) []any {
				return []any{string(s.OwnerID), s.Title, strings.ToLower(s.Type), s.StartsAt, s.EndsAt, repositories.NullIfEmpty(s.Location), strings.ToLower(s.Status)}
			},
			Fields: map[string]string{
				"title": "title", "type": "type", "startsAt": "starts_at", "endsAt": "ends_at",
				"location": "location", "status": "status",
			},
			Times:  []string{"startsAt", "endsAt"},
			Owners: map[string]string{domain.RoleSeller: "owner_id", domain.RoleEmployer: "owner_id"},
			Order:  "starts_at ASC, id ASC",
		},
	}
}

type Job struct {
	ID         domain.ID   `json:"id"`
	EmployerID domain.ID   `json:"employerId"`
	Title      string      `json:"title"`
	Company    string      `json:"company"`
	Location   string      `json:"location"`
	Type       string      `json:"type"`
	SalaryMin  float64     `json:"salaryMin"`
	SalaryMax  float64     `json:"salaryMax"`
	Status     string      `json:"status"`
	Applicants int         `json:"applicants"`
	PostedAt   domain.Time `json:"postedAt"`
}

var (
	jobTypes    = []string{"full-time", "part-time", "contract", "internship", "remote"}
	jobStatuses = []string{"open", "closed", "draft"}
)

func jobs() kind[Job] {
	return kind[Job]{
		name:  "jobs",
		title: "Jobs",
		roles: []string{domain.RoleEmployer},
		schema: listing.Schema[Job]{
			Resource: "jobs",
			ID:       id(func(j Job) domain.ID { return j.ID }),
			SetID:    func(j *Job, v string) { j.ID = domain.ID(v) },
			Search: []func(Job) string{
				func(j Job) string { return j.Title },
				func(j Job) string { return j.Company },
				func(j Job) string { return j.Location },
			},
			Filters: map[string]func(Job) string{
				"type":     func(j Job) string { return j.Type },
				"status":   func(j Job) string { return j.Status },
				"location": func(j Job) string { return j.Location },
			},
			Numbers: map[string]func(Job) float64{
				"salaryMin":  func(j Job) float64 { return j.SalaryMin },
				"salaryMax":  func(j Job) float64 { return j.SalaryMax },
				"applicants": func(j Job) float64 { return float64(j.Applicants) },
			},
			Dates: map[string]func(Job) time.Time{
				"postedAt": date(func(j Job) domain.Time { return j.PostedAt }),
			},
			Sorts: map[string]func(a, b Job) int{
				"postedAt":   byTime(func(j Job) domain.Time { return j.PostedAt }),
				"title":      byText(func(j Job) string { return j.Title }),
				"salaryMax":  byNumber(func(j Job) float64 { return j.SalaryMax }),
				"applicants": byNumber(func(j Job) int { return j.Applicants }),
			},
			Columns: []listing.Column[Job]{
				{Header: "Title", Value: func(j Job) string { return j.Title }},
				{Header: "Company", Value: func(j Job) string { return j.Company }},
				{Header: "Location", Value: func(j Job) string { return j.Location }},
				{Header: "Type", Value: func(j Job) string { return j.Type }},
				{Header: "Salary", Value: func(j Job) string { return money(j.SalaryMin) + " - " + money(j.SalaryMax) }},
				{Header: "Status", Value: func(j Job) string { return j.Status }},
				{Header: "Applicants", Value: func(j Job) string { return strconv.Itoa(j.Applicants) }},
				{Header: "Posted", Value: func(j Job) string { return utils.FormatDate(j.PostedAt.Time) }},
			},
			Validate: func(j Job) error {
				if j.SalaryMax > 0 && j.SalaryMin > j.SalaryMax {
					return domain.ValidationError{Field: "salaryMin", Msg: "must not exceed salaryMax"}
				}
				return firstError(
					required("title", j.Title),
					nonNegative("salaryMin", j.SalaryMin),
					oneOf("type", j.Type, jobTypes...),
					oneOf("status", j.Status, jobStatuses...),
				)
			},
		},
		table: repositories.Table[Job]{
			Name:   "jobs",
			Select: []string{"id", "employer_id", "title", "COALESCE(company_name,'')", "COALESCE(location,'')", "job_type", "salary_min", "salary_max", "status", "applicants_count", "posted_at"},
			Insert: []string{"employer_id", "title", "company_name", "location", "job_type", "salary_min", "salary_max", "status", "applicants_count", "posted_at"},
			Scan: func(s repositories.Scanner) (Job, error) {
				var j Job
				err := s.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Company, &j.Location, &j.Type, &j.SalaryMin, &j.SalaryMax, &j.Status, &j.Applicants, &j.PostedAt)
				return j, err
			},
			Values: func(j Job) []any {
				return []any{string(j.EmployerID), j.Title, repositories.NullIfEmpty(j.Company), repositories.NullIfEmpty(j.Location), strings.ToLower(j.Type), j.SalaryMin, j.SalaryMax, strings.ToLower(j.Status), j.Applicants, stamp(j.PostedAt)}
			},
			Fields: map[string]string{
				"title": "title", "company": "company_name", "location": "location", "type": "job_type",
				"salaryMin": "salary_min", "salaryMax": "salary_max", "status": "status", "postedAt": "posted_at",
			},
			Times:  []string{"postedAt"},
			Owners: map[string]string{domain.RoleEmployer: "employer_id"},
			Order:  "posted_at DESC, id DESC",
		},
	}
}

type Interview struct {
	ID            domain.ID   `json:"id"`
	JobID         domain.ID   `json:"jobId"`
	JobTitle      string      `json:"jobTitle"`
	EmployerID    domain.ID   `json:"employerId"`
	CandidateID   domain.ID   `json:"candidateId"`
	CandidateName string      `json:"candidateName"`
	ScheduledAt   domain.Time `json:"scheduledAt"`
	Mode          string      `json:"mode"`
	Status        string      `json:"status"`
	Notes         string      `json:"notes"`
}

var (
	interviewModes    = []string{"online", "onsite", "phone"}
	interviewStatuses = []string{"scheduled", "completed", "cancelled", "no-show"}
)

func interviews() kind[Interview] {
	return kind[Interview]{
		name:  "interviews",
		title: "Interviews",
		roles: []string{domain.RoleEmployer, domain.RoleJobSeeker},
		schema: listing.Schema[Interview]{
			Resource: "interviews",
			ID:       id(func(i Interview) domain.ID { return i.ID }),
			SetID:    func(i *Interview, v string) { i.ID = domain.ID(v) },
			Search: []func(Interview) string{
				func(i Interview) string { return i.JobTitle },
				func(i Interview) string { return i.CandidateName },
			},
			Filters: map[string]func(Interview) string{
				"status": func(i Interview) string { return i.Status },
				"mode":   func(i Interview) string { return i.Mode },
			},
			Dates: map[string]func(Interview) time.Time{
				"scheduledAt": date(func(i Interview) domain.Time { return i.ScheduledAt }),
			},
			Sorts: map[string]func(a, b Interview) int{
				"scheduledAt":   byTime(func(i Interview) domain.Time { return i.ScheduledAt }),
				"candidateName": byText(func(i Interview) string { return i.CandidateName }),
			},
			Columns: []listing.Column[Interview]{
				{Header: "Job", Value: func(i Interview) string { return i.JobTitle }},
				{Header: "Candidate", Value: func(i Interview) string { return i.CandidateName }},
				{Header: "Scheduled", Value: func(i Interview) string { return utils.FormatDateTime(i.ScheduledAt.Time) }},
				{Header: "Mode", Value: func(i Interview) string { return i.Mode }},
				{Header: "Status", Value: func(i Interview) string { return i.Status }},
				{Header: "Notes", Value: func(i Interview) string { return i.Notes }},
			},
			Validate: func(i Interview) error {
				if i.ScheduledAt.IsZero() {
					return domain.ValidationError{Field: "scheduledAt", Msg: "required"}
				}
				return firstError(
					required("jobId", string(i.JobID)),
					oneOf("mode", i.Mode, interviewModes...),
					oneOf("status", i.Status, interviewStatuses...),
				)
			},
		},
		table: repositories.Table[Interview]{
			Name:   "interviews",
			Select: []string{"id", "job_id", "COALESCE(job_title,'')", "employer_id", "candidate_id", "COALESCE(candidate_name,'')", "scheduled_at", "mode", "status", "COALESCE(notes,'')"},
			Insert: []string{"job_id", "job_title", "employer_id", "candidate_id", "candidate_name", "scheduled_at", "mode", "status", "notes"},
			Scan: func(s repositories.Scanner) (Interview, error) {
				var i Interview
				err := s.Scan(&i.ID, &i.JobID, &i.JobTitle, &i.EmployerID, &i.CandidateID, &i.CandidateName, &i.ScheduledAt, &i.Mode, &i.Status, &i.Notes)
				return i, err
			},
			Values: func(i Interview) []any {
				return []any{string(i.JobID), repositories.NullIfEmpty(i.JobTitle), string(i.EmployerID), string(i.CandidateID), repositories.NullIfEmpty(i.CandidateName), i.ScheduledAt, strings.ToLower(i.Mode), strings.ToLower(i.Status), repositories.NullIfEmpty(i.Notes)}
			},
			Fields: map[string]string{
				"jobTitle": "job_title", "candidateName": "candidate_name", "scheduledAt": "scheduled_at",
				"mode": "mode", "status": "status", "notes": "notes",
			},
			Times:  []string{"scheduledAt"},
			Owners: map[string]string{domain.RoleEmployer: "employer_id", domain.RoleJobSeeker: "candidate_id"},
			Order:  "scheduled_at DESC, id DESC",
		},
	}
}
