// Package account はユーザー登録・ログイン・現在ユーザーの解決を提供する。
// セッションへの書き込みは行わず、呼び出し側（ハンドラー）が結果をセッションに反映する。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// ForgotPasswordMessage はパスワード再設定リクエストに常に返す定型文。
// アカウントの有無で文言を変えない。
const ForgotPasswordMessage = "If an account with that username exists, password reset instructions have been sent."

// Service はアカウント管理のサービス層。
type Service struct {
	users   repository.UserRepository
	hasher  security.PasswordHasher
	policy  security.PasswordPolicy
	metrics metrics.MetricsCollector
}

// NewService はServiceを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(
	users repository.UserRepository,
	hasher security.PasswordHasher,
	policy security.PasswordPolicy,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		users:   users,
		hasher:  hasher,
		policy:  policy,
		metrics: collector,
	}
}

// Register は新規ユーザーを作成する。
// 入力不足・弱いパスワード・ユーザー名重複はいずれも*model.AppError（validation）を返す。
// パスワードはハッシュのみを保存する。
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.metrics.RecordRegistration(metrics.ResultRejected)
		return nil, model.NewRequiredFieldsError()
	}
	if !validUsername(username) {
		s.metrics.RecordRegistration(metrics.ResultRejected)
		return nil, model.NewInvalidUsernameError()
	}

	if err := s.policy.Check(password); err != nil {
		s.metrics.RecordRegistration(metrics.ResultRejected)
		return nil, err
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		s.metrics.RecordRegistration(metrics.ResultFailure)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		s.metrics.RecordRegistration(metrics.ResultRejected)
		return nil, model.NewUsernameTakenError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.RecordRegistration(metrics.ResultFailure)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 事前チェックと挿入の間に同名ユーザーが作られた場合
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordRegistration(metrics.ResultRejected)
			return nil, model.NewUsernameTakenError()
		}
		s.metrics.RecordRegistration(metrics.ResultFailure)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.RecordRegistration(metrics.ResultSuccess)
	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login はユーザー名とパスワードを検証する。
// ユーザーが存在しない場合とパスワードが一致しない場合は同じエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || !validUsername(username) {
		s.metrics.RecordLogin(metrics.ResultFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.metrics.RecordLogin(metrics.ResultFailure)
		slog.Debug("login failed: unknown user")
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.RecordLogin(metrics.ResultFailure)
		slog.Debug("login failed: password mismatch", slog.Int64("user_id", user.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	s.metrics.RecordLogin(metrics.ResultSuccess)
	return user, nil
}

// CurrentUser はセッションのユーザーIDからユーザーを解決する。
// userIDが0、またはユーザーが既に存在しない場合は(nil, nil)を返す。
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	if userID == 0 {
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ForgotPassword はパスワード再設定リクエストを受け付け、常に同じ定型文を返す。
// 実際の再設定処理は行わない。アカウントの有無はdebugログにのみ残す。
func (s *Service) ForgotPassword(ctx context.Context, username string) string {
	username = strings.TrimSpace(username)
	if username != "" && validUsername(username) {
		user, err := s.users.FindByUsername(ctx, username)
		switch {
		case err != nil:
			slog.Warn("forgot password lookup failed", slog.String("error", err.Error()))
		default:
			slog.Debug("forgot password requested", slog.Bool("account_exists", user != nil))
		}
	}
	return ForgotPasswordMessage
}

// validUsername はユーザー名がusers.username列に格納できるかを判定する。
func validUsername(username string) bool {
	return utf8.ValidString(username) && utf8.RuneCountInString(username) <= model.MaxUsernameLength
}
