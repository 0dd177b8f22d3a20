package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"tg-link-service/internal/domain"
)

// PartnerDirectory - операции партнерского API, нужные для привязки
type PartnerDirectory interface {
	GetUserByPhone(ctx context.Context, tenantID, phone string) (*domain.PartnerUsers, error)
	EditUserLink(ctx context.Context, tenantID, userID, platformUserID string) (*domain.EditResult, error)
}

// LinkService связывает событие /start с пользователем партнерской системы
type LinkService struct {
	partner PartnerDirectory
	logger  *slog.Logger
}

// NewLinkService создает сервис привязки
func NewLinkService(partner PartnerDirectory, logger *slog.Logger) *LinkService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkService{
		partner: partner,
		logger:  logger,
	}
}

// ParseStartArgs разбирает "<phone>_<tenant>" по первому подчеркиванию
func ParseStartArgs(rawArgs string) (phone, tenantID string, err error) {
	phone, tenantID, found := strings.Cut(strings.TrimSpace(rawArgs), "_")
	if !found || phone == "" || tenantID == "" {
		return "", "", domain.ErrMalformedStartArgs
	}
	return phone, tenantID, nil
}

// HandleStart проводит одну попытку привязки и всегда возвращает непустой ответ.
// Повторная привязка той же пары не считается ошибкой.
func (s *LinkService) HandleStart(ctx context.Context, rawArgs, platformUserID string) domain.LinkResult {
	log := s.logger.With("link_id", uuid.NewString(), "u_tg", platformUserID)

	phone, tenantID, err := ParseStartArgs(rawArgs)
	if err != nil {
		log.Info("malformed start args", "args", rawArgs)
		return result(domain.OutcomeMalformed, "")
	}
	req := domain.LinkRequest{Phone: phone, TenantID: tenantID, PlatformUserID: platformUserID}
	log = log.With("tenant", req.TenantID, "phone", req.Phone)

	users, err := s.partner.GetUserByPhone(ctx, req.TenantID, req.Phone)
	if err != nil {
		outcome := classify(err)
		log.Error("user lookup failed", "outcome", outcome, "error", err)
		return result(outcome, "")
	}
	if users.Empty() {
		log.Info("user not found")
		return result(domain.OutcomeUserNotFound, "")
	}

	userID := pickUserID(users)
	log = log.With("user_id", userID)
	if len(users.Users) > 1 {
		log.Warn("several users match phone, using the first id", "matches", len(users.Users))
	}
	log.Info("user started with args", "args", rawArgs)

	edit, err := s.partner.EditUserLink(ctx, req.TenantID, userID, req.PlatformUserID)
	outcome := editOutcome(edit, err)
	if outcome == domain.OutcomeLinked || outcome == domain.OutcomeAlreadyLinkedElsewhere {
		log.Info("link finished", "outcome", outcome)
	} else {
		log.Error("link failed", "outcome", outcome, "error", err)
	}
	return result(outcome, userID)
}

// editOutcome: сигнальное сообщение о двойной привязке важнее HTTP статуса
func editOutcome(edit *domain.EditResult, err error) domain.LinkOutcome {
	if edit != nil && edit.Message == domain.DoubleLinkMessage {
		return domain.OutcomeAlreadyLinkedElsewhere
	}
	if err != nil {
		return classify(err)
	}
	if edit != nil && edit.Success {
		return domain.OutcomeLinked
	}
	return domain.OutcomeTransportError
}

func classify(err error) domain.LinkOutcome {
	if errors.Is(err, domain.ErrAuthMissing) {
		return domain.OutcomeAuthMissing
	}
	return domain.OutcomeTransportError
}

// pickUserID - лексикографически первый ID; API обещает не больше одного совпадения
func pickUserID(users *domain.PartnerUsers) string {
	ids := make([]string, 0, len(users.Users))
	for id := range users.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids[0]
}

func result(outcome domain.LinkOutcome, userID string) domain.LinkResult {
	return domain.LinkResult{
		Outcome: outcome,
		Message: outcome.Message(),
		UserID:  userID,
	}
}
