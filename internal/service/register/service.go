// Package register runs the admission pipeline in front of the faucet's
// membership grants: screening bypass, captcha, validation, eligibility
// and rate limiting, then a serialized submission against the shared
// signing key.
package register

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"unicode/utf8"

	"github.com/labstack/gommon/log"

	"member-faucet/internal/boot"
	"member-faucet/internal/captcha"
	"member-faucet/internal/chain"
	"member-faucet/internal/metrics"
	"member-faucet/internal/model"
	"member-faucet/internal/ratelimit"
	"member-faucet/pkg/ss58"
)

const globalLimitKey = "global"

type CaptchaVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token string) captcha.Result
}

type BypassGate interface {
	Enabled() bool
	TryBypass(submitter, supplied string) bool
}

type Alerter interface {
	Send(message string)
}

type MemberRecorder interface {
	Record(member *model.CreatedMember) error
}

type service struct {
	config     *boot.Config
	chain      chain.Client
	captcha    CaptchaVerifier
	gate       BypassGate
	alerts     Alerter
	records    MemberRecorder
	capability Capability
	perIP      *ratelimit.Limiter
	global     *ratelimit.Limiter

	// serializes every submission under the shared signing key
	submitMu sync.Mutex
}

func New(config *boot.Config, client chain.Client, verifier CaptchaVerifier, gate BypassGate, alerts Alerter, records MemberRecorder) *service {
	return &service{
		config:     config,
		chain:      client,
		captcha:    verifier,
		gate:       gate,
		alerts:     alerts,
		records:    records,
		capability: NewCapability(client, config.Faucet.TopUpAmount, config.Faucet.CreditAmount),
		perIP:      ratelimit.New(config.Throttle.PerIPMaxInInterval, config.PerIPLimitInterval()),
		global:     ratelimit.New(config.Throttle.GlobalMaxInInterval, config.GlobalLimitInterval()),
	}
}

// Register drives one request through the gates in their fixed order.
// Cheap checks run first; the limiters that can penalize a legitimate
// caller run last so a request that was always going to fail does not
// consume quota. It returns a *model.PipelineError for every rejection.
func (s *service) Register(ctx context.Context, submitter, bypassKey string, req *model.RegisterRequest) (*model.RegisterResult, error) {
	syncing, err := s.chain.IsSyncing(ctx)
	if err != nil {
		log.Errorf("querying node health: %+v", err)
		return nil, s.reject(model.InternalError())
	}
	if syncing {
		return nil, s.reject(model.NewPipelineError(model.ReasonNodeNotReady, http.StatusInternalServerError))
	}

	bypassGranted := false
	if s.gate.Enabled() && s.screeningActive() && bypassKey != "" {
		// generic rejection: never reveals wrong key vs throttled
		if !s.gate.TryBypass(submitter, bypassKey) {
			return nil, s.reject(model.Unauthorized())
		}
		bypassGranted = true
	}

	if s.captcha.Enabled() && !bypassGranted {
		if req.CaptchaToken == "" {
			return nil, s.reject(model.BadRequest(model.ReasonMissingCaptchaToken))
		}
		result := s.captcha.Verify(ctx, req.CaptchaToken)
		switch result.Outcome {
		case captcha.OutcomeSuccess:
		case captcha.OutcomeAlreadyUsed, captcha.OutcomeInvalid:
			rejection := model.BadRequest(model.ReasonInvalidCaptchaToken)
			if len(result.ErrorCodes) > 0 {
				rejection.Data = map[string]interface{}{"codes": result.ErrorCodes}
			}
			return nil, s.reject(rejection)
		default:
			// verification itself failed; the caller's token may be fine
			return nil, s.reject(model.InternalError())
		}
	}

	if err := s.validate(ctx, req); err != nil {
		return nil, s.reject(err)
	}

	snapshot, err := s.capability.Eligibility(ctx)
	if err != nil {
		log.Errorf("computing faucet eligibility: %+v", err)
		return nil, s.reject(model.InternalError())
	}
	if !snapshot.Eligible() {
		s.alerts.Send(fmt.Sprintf("Faucet cannot serve new registrations: %s", snapshot.Describe()))
		return nil, s.reject(model.BadRequest(model.ReasonFaucetExhausted))
	}

	if s.config.Throttle.Enabled && !bypassGranted {
		if s.perIP.Limit(submitter) {
			return nil, s.reject(model.NewPipelineError(model.ReasonTooManyRequestsPerIP, http.StatusTooManyRequests))
		}
		if s.global.Limit(globalLimitKey) {
			return nil, s.reject(model.NewPipelineError(model.ReasonTooManyRequests, http.StatusTooManyRequests))
		}
	}

	return s.submit(ctx, req)
}

// screeningActive reports whether any gate the bypass key could skip is in
// play, derived from the collaborators actually wired in. A supplied key is
// ignored while nothing screens.
func (s *service) screeningActive() bool {
	return s.captcha.Enabled() || s.config.Throttle.Enabled
}

// validate runs the short-circuiting input checks; first failure wins.
func (s *service) validate(ctx context.Context, req *model.RegisterRequest) *model.PipelineError {
	if err := ss58.Validate(req.Account); err != nil {
		log.Infof("invalid address supplied: %s", req.Account)
		return model.BadRequest(model.ReasonInvalidAddress)
	}

	fresh, err := s.chain.IsFreshAccount(ctx, req.Account)
	if err != nil {
		log.Errorf("querying account freshness: %+v", err)
		return model.InternalError()
	}
	if !fresh {
		return model.BadRequest(model.ReasonNotFreshAccount)
	}

	length := utf8.RuneCountInString(req.Handle)
	if length < s.config.Faucet.MinHandleLength {
		return model.BadRequest(model.ReasonHandleTooShort)
	}
	if length > s.config.Faucet.MaxHandleLength {
		return model.BadRequest(model.ReasonHandleTooLong)
	}

	registered, err := s.chain.HandleRegistered(ctx, req.Handle)
	if err != nil {
		log.Errorf("querying handle uniqueness: %+v", err)
		return model.InternalError()
	}
	if registered {
		log.Infof("handle already registered: %s", req.Handle)
		return model.BadRequest(model.ReasonHandleAlreadyRegistered)
	}

	return nil
}

// submit performs the grant while holding the submission lock. The lock is
// released on every exit path; once submission has started the pipeline
// runs to a terminal outcome even if the caller has gone away.
func (s *service) submit(ctx context.Context, req *model.RegisterRequest) (*model.RegisterResult, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	resources := make([]chain.ExternalResource, 0, len(req.ExternalResources))
	for _, resource := range req.ExternalResources {
		resources = append(resources, chain.ExternalResource{Type: string(resource.Type), Value: resource.Value})
	}

	grant, err := s.chain.InviteMember(ctx, chain.NewMember{
		Account:           req.Account,
		Handle:            req.Handle,
		Name:              req.Name,
		Avatar:            req.Avatar,
		About:             req.About,
		ExternalResources: resources,
	})
	if err != nil {
		s.alerts.Send(fmt.Sprintf("Failed to register new member %q: %s", req.Handle, err))
		return nil, s.reject(submitRejection(err))
	}
	log.Infof("created new member id %d handle %q", grant.MemberID, req.Handle)

	result := &model.RegisterResult{MemberID: grant.MemberID}
	if grant.Block.Known {
		number := grant.Block.Number
		result.Block = &number
		result.BlockHash = grant.Block.Hash
	}

	attempted, err := s.capability.TopUp(ctx, req.Account)
	if attempted {
		result.TopUpSuccessful = err == nil
		if err != nil {
			log.Errorf("topping up balance of %s: %+v", req.Account, err)
			s.alerts.Send(fmt.Sprintf("Failed to top up balance for new account %s: %s", req.Account, err))
		}
	}

	record := &model.CreatedMember{
		MemberID:  grant.MemberID,
		Handle:    req.Handle,
		Account:   req.Account,
		Block:     result.Block,
		BlockHash: result.BlockHash,
	}
	if err := s.records.Record(record); err != nil {
		log.Errorf("recording created member: %+v", err)
	}

	metrics.RegistrationsAccepted.Inc()
	return result, nil
}

func submitRejection(err error) *model.PipelineError {
	var txErr *chain.TransactionError
	var procErr *chain.ProcessingError
	switch {
	case errors.As(err, &procErr):
		// on-chain rejection of an included transaction; retrying with
		// the same inputs will fail again
		return model.BadRequest(procErr.Name)
	case errors.As(err, &txErr):
		return &model.PipelineError{
			Reason: "TransactionError",
			Status: http.StatusInternalServerError,
			Data:   map[string]interface{}{"status": txErr.Status},
		}
	default:
		log.Errorf("submitting transaction: %+v", err)
		return model.InternalError()
	}
}

func (s *service) reject(err *model.PipelineError) *model.PipelineError {
	metrics.RegistrationsRejected.WithLabelValues(err.Reason).Inc()
	return err
}

// Status reports the node and faucet health for GET /status.
func (s *service) Status(ctx context.Context) (*model.Status, error) {
	syncing, err := s.chain.IsSyncing(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying node health: %w", err)
	}
	if syncing {
		return &model.Status{Message: "Chain is still syncing"}, nil
	}

	status := &model.Status{IsSynced: true}
	if name, err := s.chain.ChainName(ctx); err == nil {
		status.Chain = name
	}
	snapshot, err := s.capability.Eligibility(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing faucet eligibility: %w", err)
	}
	status.HasEnoughFunds = snapshot.Eligible()
	if status.HasEnoughFunds {
		status.Message = "All systems go"
	} else {
		status.Message = "Faucet is out of capacity"
	}

	if s.config.Throttle.Enabled {
		status.Limit = &model.Limit{
			MaxInInterval: s.config.Throttle.GlobalMaxInInterval,
			IntervalHours: s.config.Throttle.GlobalIntervalHours,
		}
	}
	return status, nil
}
