package compliance

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var einPattern = regexp.MustCompile(`^\d{2}-\d{7}$`)

// federalRequiredFields must be shown on every wage statement.
var federalRequiredFields = []string{
	"employee_name",
	"employee_ssn_last4",
	"employee_address",
	"employer_name",
	"employer_ein",
	"employer_address",
	"pay_period_start",
	"pay_period_end",
	"pay_date",
	"gross_pay",
	"net_pay",
	"total_taxes",
	"earnings_breakdown",
	"taxes_breakdown",
}

// adaRecommendations cannot be verified from data, so they are always listed.
var adaRecommendations = []string{
	"Use a logical heading structure (H1 for the statement title, H2 for each section).",
	"Keep text to background contrast at or above 4.5:1.",
	"Provide alternative text for logos and any non-text content.",
	"Test the generated document with a screen reader before distribution.",
}

var flsaOvertimeMultiplier = decimal.NewFromFloat(1.5)

type Engine struct {
	registry *StateRegistry
	now      func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used for CheckedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(registry *StateRegistry, opts ...Option) *Engine {
	if registry == nil {
		registry = DefaultStateRegistry()
	}
	e := &Engine{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Registry() *StateRegistry {
	return e.registry
}

// Check evaluates stmt against the federal, state and ADA rule sets.
// stateOverride, when set, replaces the statement's own jurisdiction.
func (e *Engine) Check(stmt Statement, stateOverride string) (Result, error) {
	stateCode := normalizeState(stmt.StateJurisdiction)
	if o := normalizeState(stateOverride); o != "" {
		stateCode = o
	}
	if stateCode == "" {
		return Result{}, ErrInvalidStatement
	}

	federal := checkFederal(stmt)
	state := e.checkState(stmt, stateCode)
	ada := checkADA(stmt)

	res := Result{
		PayStubID:         stmt.PayStubID,
		StateCode:         stateCode,
		FederalCompliance: federal.compliant,
		StateCompliance:   state.compliant,
		ADACompliance:     ada.compliant,
		MissingFields:     []string{},
		Issues:            []string{},
		Warnings:          []string{},
		Recommendations:   []string{},
		CheckedAt:         e.now().UTC(),
	}
	res.IsCompliant = res.FederalCompliance && res.StateCompliance && res.ADACompliance

	seenFields := map[string]struct{}{}
	seenRecs := map[string]struct{}{}
	for _, s := range []section{federal, state, ada} {
		res.MissingFields = appendUnique(res.MissingFields, seenFields, s.missingFields...)
		res.Issues = append(res.Issues, s.issues...)
		res.Warnings = append(res.Warnings, s.warnings...)
		res.Recommendations = appendUnique(res.Recommendations, seenRecs, s.recommendations...)
	}

	return res, nil
}

// Report is Check plus counts and the disclaimers the statement must print.
func (e *Engine) Report(stmt Statement, stateOverride string) (Report, error) {
	res, err := e.Check(stmt, stateOverride)
	if err != nil {
		return Report{}, err
	}

	disclaimers := e.registry.FederalDisclaimers()
	if rule, ok := e.registry.Lookup(res.StateCode); ok {
		disclaimers = append(disclaimers, rule.Disclaimers...)
	}

	return Report{
		Result: res,
		Summary: Summary{
			TotalIssues:          len(res.MissingFields) + len(res.Issues),
			TotalWarnings:        len(res.Warnings),
			TotalRecommendations: len(res.Recommendations),
		},
		RequiredDisclaimers: disclaimers,
	}, nil
}

// checkFederal applies the fixed federal field list. Format and withholding
// findings are warnings and never change compliance.
func checkFederal(stmt Statement) section {
	s := section{compliant: true}
	for _, field := range federalRequiredFields {
		if !hasField(stmt, field) {
			s.missing(field)
		}
	}

	if stmt.EmployerEIN != "" && !einPattern.MatchString(stmt.EmployerEIN) {
		s.warn(fmt.Sprintf("employer EIN %q does not match the XX-XXXXXXX format", stmt.EmployerEIN))
	}
	if !hasCategory(stmt.Taxes, TaxFederalIncome) {
		s.warn("no federal income tax withholding line in taxes breakdown")
	}
	if !hasCategory(stmt.Taxes, TaxSocialSecurity) {
		s.warn("no Social Security tax line in taxes breakdown")
	}
	if !hasCategory(stmt.Taxes, TaxMedicare) {
		s.warn("no Medicare tax line in taxes breakdown")
	}
	if stmt.OvertimeHours.IsPositive() {
		minRate := stmt.RegularRate.Mul(flsaOvertimeMultiplier)
		if stmt.OvertimeRate.LessThan(minRate) {
			s.warn(fmt.Sprintf(
				"overtime rate %s is below 1.5x the regular rate %s (FLSA minimum %s)",
				stmt.OvertimeRate.StringFixed(2), stmt.RegularRate.StringFixed(2), minRate.StringFixed(2),
			))
		}
	}
	if !stmt.PayDate.IsZero() && !stmt.PayPeriodEnd.IsZero() && stmt.PayDate.Before(stmt.PayPeriodEnd) {
		s.warn("pay date is earlier than the end of the pay period")
	}

	return s
}

func (e *Engine) checkState(stmt Statement, stateCode string) section {
	rule, ok := e.registry.Lookup(stateCode)
	if !ok {
		s := section{compliant: false}
		s.warn(fmt.Sprintf("no wage statement rules registered for state %q", stateCode))
		s.recommend("Review the state's wage statement requirements and add them to the rule registry.")
		return s
	}
	return checkStateRule(stmt, rule)
}

// checkStateRule applies one state's declarative rule.
func checkStateRule(stmt Statement, rule StateRule) section {
	s := section{compliant: true}

	for _, field := range rule.RequiredFields {
		if !hasField(stmt, field) {
			s.missing(field)
		}
	}
	if rule.RequireSickLeaveBalance && !stmt.SickLeaveBalance.Valid {
		s.missing("sick_leave_balance")
	}
	if rule.RequireEmployerUBI && stmt.EmployerUBINumber == "" {
		s.missing("employer_ubi_number")
	}
	if rule.RequireDeductionDescriptions {
		for i, d := range stmt.Deductions {
			if d.Description == "" {
				s.issue(fmt.Sprintf("deduction #%d (%s) has no description", i+1, d.Code))
			}
		}
	}
	if rule.RequireOvertimeBreakdown && stmt.OvertimeHours.IsPositive() {
		if !hasCategory(stmt.Earnings, EarningRegular) || !hasCategory(stmt.Earnings, EarningOvertime) {
			s.issue(fmt.Sprintf("%s requires separate regular and overtime earning lines when overtime is worked", rule.Name))
		}
	}

	if rule.Frequency != "" {
		s.recommend(fmt.Sprintf("%s expects wage statements on a %s pay schedule.", rule.Name, rule.Frequency))
	}
	for _, r := range rule.Recommendations {
		s.recommend(r)
	}

	return s
}

// checkADA requires the accessible-document flag and always lists the manual
// accessibility checks.
func checkADA(stmt Statement) section {
	s := section{compliant: true}
	if !stmt.ADACompliant {
		s.issue("generated document is not marked ADA compliant")
	}
	for _, r := range adaRecommendations {
		s.recommend(r)
	}
	return s
}
