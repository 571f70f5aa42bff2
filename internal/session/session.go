// Package session はgorilla/sessionsの署名付きCookieにカート・ログイン状態・フラッシュメッセージを保存する。
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/hitoshi/storefront/internal/cart"
)

// CookieName はセッションCookieの名前。
const CookieName = "storefront_session"

const (
	keyCart      = "cart"
	keyUserID    = "user_id"
	keyPermanent = "permanent"
)

// Options はセッションCookieの設定。
type Options struct {
	Secret         string
	Secure         bool
	Domain         string
	RememberMaxAge int // 「ログイン状態を保持」時のCookie有効期間（秒）
}

// Manager はセッションの読み込みと保存を管理する。
type Manager struct {
	store          *sessions.CookieStore
	rememberMaxAge int
}

// NewManager はManagerを生成する。
// 通常のセッションはブラウザを閉じるまで有効で、永続セッションのみRememberMaxAgeを設定する。
func NewManager(opts Options) *Manager {
	store := sessions.NewCookieStore([]byte(opts.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   0,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	// 署名のタイムスタンプ検証は永続セッションの期間に合わせる
	if opts.RememberMaxAge > 0 {
		for _, codec := range store.Codecs {
			if sc, ok := codec.(*securecookie.SecureCookie); ok {
				sc.MaxAge(opts.RememberMaxAge)
			}
		}
	}

	return &Manager{
		store:          store,
		rememberMaxAge: opts.RememberMaxAge,
	}
}

// RememberDays は永続セッションの有効日数を返す。
func (m *Manager) RememberDays() int {
	return m.rememberMaxAge / (24 * 60 * 60)
}

// Load はリクエストからセッションを読み込む。
// 署名が不正・期限切れのCookieは破棄し、新しい空のセッションとして扱う。
// カートが存在しない場合は空のカートで初期化する。
func (m *Manager) Load(r *http.Request) *State {
	sess, err := m.store.Get(r, CookieName)
	if err != nil {
		var cookieErr securecookie.Error
		if errors.As(err, &cookieErr) && cookieErr.IsDecode() {
			slog.Debug("discarding undecodable session cookie", slog.String("error", err.Error()))
		} else {
			slog.Warn("failed to load session", slog.String("error", err.Error()))
		}
		sess.Values = make(map[interface{}]interface{})
		sess.IsNew = true
	}

	st := &State{sess: sess, manager: m}

	c, ok := sess.Values[keyCart].(cart.Cart)
	if !ok {
		c = cart.New()
		st.dirty = true
	}
	st.cart = c
	return st
}

// State は1リクエスト分のセッション状態。
// 変更はSaveを呼ぶまでCookieに反映されない。
type State struct {
	sess    *sessions.Session
	manager *Manager
	cart    cart.Cart
	dirty   bool
}

// Cart はセッションのカートを返す。返されたカートの変更後はMarkDirtyを呼ぶ。
func (s *State) Cart() cart.Cart {
	return s.cart
}

// MarkDirty はセッションに保存すべき変更があることを記録する。
func (s *State) MarkDirty() {
	s.dirty = true
}

// Dirty は未保存の変更があるかどうかを返す。
func (s *State) Dirty() bool {
	return s.dirty
}

// RememberDays はログイン状態を保持する日数を返す。
func (s *State) RememberDays() int {
	return s.manager.RememberDays()
}

// UserID はログイン中のユーザーIDを返す。未ログインの場合は0。
func (s *State) UserID() int64 {
	id, _ := s.sess.Values[keyUserID].(int64)
	return id
}

// Permanent は永続セッションかどうかを返す。
func (s *State) Permanent() bool {
	p, _ := s.sess.Values[keyPermanent].(bool)
	return p
}

// SetUser はログインユーザーを設定する。
// permanentがtrueの場合、Cookieの有効期間をRememberMaxAgeにする。
func (s *State) SetUser(userID int64, permanent bool) {
	s.sess.Values[keyUserID] = userID
	if permanent {
		s.sess.Values[keyPermanent] = true
	} else {
		delete(s.sess.Values, keyPermanent)
	}
	s.dirty = true
}

// ClearUser はログイン情報と永続フラグを削除する。カートは残す。
// 未ログインでも呼び出せる。
func (s *State) ClearUser() {
	_, hadUser := s.sess.Values[keyUserID]
	_, hadPermanent := s.sess.Values[keyPermanent]
	if !hadUser && !hadPermanent {
		return
	}
	delete(s.sess.Values, keyUserID)
	delete(s.sess.Values, keyPermanent)
	s.dirty = true
}

// AddFlash は次の画面表示で一度だけ表示するメッセージを追加する。
func (s *State) AddFlash(message string) {
	s.sess.AddFlash(message)
	s.dirty = true
}

// Flashes は保存されたフラッシュメッセージを取り出して削除する。
func (s *State) Flashes() []string {
	raw := s.sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	s.dirty = true

	messages := make([]string, 0, len(raw))
	for _, v := range raw {
		if msg, ok := v.(string); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

// Save はセッションをCookieに書き込む。変更がない場合は何もしない。
// レスポンスヘッダー送信前に呼び出す必要がある。
func (s *State) Save(r *http.Request, w http.ResponseWriter) error {
	if !s.dirty {
		return nil
	}

	s.sess.Values[keyCart] = s.cart

	opts := *s.manager.store.Options
	if s.Permanent() {
		opts.MaxAge = s.manager.rememberMaxAge
	}
	s.sess.Options = &opts

	if err := s.sess.Save(r, w); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

type contextKey struct{}

// NewContext はセッション状態を格納したコンテキストを返す。
func NewContext(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, contextKey{}, st)
}

// FromContext はコンテキストからセッション状態を取り出す。
// セッションミドルウェアを通過していない場合はnilを返す。
func FromContext(ctx context.Context) *State {
	st, _ := ctx.Value(contextKey{}).(*State)
	return st
}
