package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tradepost/internal/audit"
	"tradepost/internal/auth/service/mocks"
	"tradepost/internal/platform/config"
	"tradepost/internal/user/models"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/sentinel"
	"tradepost/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite

	ctrl            *gomock.Controller
	mockUsers       *mocks.MockUserStore
	mockHasher      *mocks.MockPasswordHasher
	mockTokens      *mocks.MockTokenIssuer
	mockRevocations *mocks.MockRevocationRecorder
	mockAuditor     *mocks.MockAuditEmitter

	service *Service
	now     time.Time
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockUsers = mocks.NewMockUserStore(s.ctrl)
	s.mockHasher = mocks.NewMockPasswordHasher(s.ctrl)
	s.mockTokens = mocks.NewMockTokenIssuer(s.ctrl)
	s.mockRevocations = mocks.NewMockRevocationRecorder(s.ctrl)
	s.mockAuditor = mocks.NewMockAuditEmitter(s.ctrl)

	s.service = New(s.mockUsers, s.mockHasher, s.mockTokens, s.mockRevocations, s.mockAuditor, slog.New(slog.DiscardHandler))
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) TestRegister() {
	input := RegisterInput{Name: "New User", Email: "new@ex.ax", Password: "hunter22"}

	s.Run("creates account with USER role and signs in", func() {
		var created *models.User
		s.mockUsers.EXPECT().ExistsByEmail(gomock.Any(), "new@ex.ax").Return(false, nil)
		s.mockHasher.EXPECT().Hash("hunter22").Return("$2a$10$hash", nil)
		s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, u *models.User) error {
				created = u
				return nil
			})
		s.mockTokens.EXPECT().Issue("new@ex.ax", id.RoleUser, s.now).Return("signed-token", nil)
		s.mockAuditor.EXPECT().Emit(gomock.Any())

		session, err := s.service.Register(s.ctx, input)
		s.Require().NoError(err)
		s.Equal("signed-token", session.Token)
		s.Equal(s.now.Add(config.TokenTTL), session.ExpiresAt)
		s.Equal(id.RoleUser, created.Role)
		s.Equal("$2a$10$hash", created.PasswordHash)
		s.Equal(s.now, created.CreatedAt)
		s.False(created.ID.IsNil())
	})

	s.Run("requested ADMIN role is downgraded", func() {
		adminInput := input
		adminInput.Role = id.RoleAdmin
		s.mockUsers.EXPECT().ExistsByEmail(gomock.Any(), "new@ex.ax").Return(false, nil)
		s.mockHasher.EXPECT().Hash("hunter22").Return("$2a$10$hash", nil)
		s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, u *models.User) error {
				s.Equal(id.RoleUser, u.Role)
				return nil
			})
		s.mockTokens.EXPECT().Issue("new@ex.ax", id.RoleUser, s.now).Return("signed-token", nil)
		s.mockAuditor.EXPECT().Emit(gomock.Any())

		session, err := s.service.Register(s.ctx, adminInput)
		s.Require().NoError(err)
		s.Equal(id.RoleUser.String(), session.User.Role)
	})

	s.Run("duplicate email returns conflict", func() {
		s.mockUsers.EXPECT().ExistsByEmail(gomock.Any(), "new@ex.ax").Return(true, nil)

		_, err := s.service.Register(s.ctx, input)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("registration race returns conflict", func() {
		s.mockUsers.EXPECT().ExistsByEmail(gomock.Any(), "new@ex.ax").Return(false, nil)
		s.mockHasher.EXPECT().Hash("hunter22").Return("$2a$10$hash", nil)
		s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		_, err := s.service.Register(s.ctx, input)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("store failure returns internal", func() {
		s.mockUsers.EXPECT().ExistsByEmail(gomock.Any(), "new@ex.ax").Return(false, errors.New("connection refused"))

		_, err := s.service.Register(s.ctx, input)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestLogin() {
	user := &models.User{
		ID:           id.NewUserID(),
		Email:        "user1@ex.ax",
		PasswordHash: "$2a$10$hash",
		Role:         id.RoleAdmin,
	}

	s.Run("valid credentials return a session", func() {
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "user1@ex.ax").Return(user, nil)
		s.mockHasher.EXPECT().Verify("$2a$10$hash", "hunter22").Return(true, nil)
		s.mockTokens.EXPECT().Issue("user1@ex.ax", id.RoleAdmin, s.now).Return("signed-token", nil)
		s.mockAuditor.EXPECT().Emit(gomock.Any()).Do(func(e audit.Event) {
			s.Equal(audit.ActionLoginSucceeded, e.Action)
		})

		session, err := s.service.Login(s.ctx, "user1@ex.ax", "hunter22")
		s.Require().NoError(err)
		s.Equal("signed-token", session.Token)
		s.Equal(user.ID.String(), session.User.ID)
		s.Equal(s.now.Add(config.TokenTTL), session.ExpiresAt)
	})

	s.Run("audit event carries parsed client metadata", func() {
		ctx := requestcontext.WithRequestID(s.ctx, "req-42")
		ctx = requestcontext.WithClientIP(ctx, "203.0.113.9")
		ctx = requestcontext.WithUserAgent(ctx, "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "user1@ex.ax").Return(user, nil)
		s.mockHasher.EXPECT().Verify("$2a$10$hash", "hunter22").Return(true, nil)
		s.mockTokens.EXPECT().Issue("user1@ex.ax", id.RoleAdmin, s.now).Return("signed-token", nil)
		s.mockAuditor.EXPECT().Emit(gomock.Any()).Do(func(e audit.Event) {
			s.Equal("req-42", e.RequestID)
			s.Equal("203.0.113.9", e.IP)
			s.Equal("Firefox 128.0", e.Browser)
			s.Equal("Linux x86_64", e.OS)
		})

		_, err := s.service.Login(ctx, "user1@ex.ax", "hunter22")
		s.Require().NoError(err)
	})

	s.Run("unknown email and wrong password are indistinguishable", func() {
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "ghost@ex.ax").Return(nil, sentinel.ErrNotFound)
		s.mockAuditor.EXPECT().Emit(gomock.Any())

		_, unknownErr := s.service.Login(s.ctx, "ghost@ex.ax", "hunter22")
		s.Require().Error(unknownErr)
		s.True(dErrors.HasCode(unknownErr, dErrors.CodeUnauthorized))

		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "user1@ex.ax").Return(user, nil)
		s.mockHasher.EXPECT().Verify("$2a$10$hash", "wrong").Return(false, nil)
		s.mockAuditor.EXPECT().Emit(gomock.Any()).Do(func(e audit.Event) {
			s.Equal(audit.ActionLoginFailed, e.Action)
		})

		_, wrongErr := s.service.Login(s.ctx, "user1@ex.ax", "wrong")
		s.Require().Error(wrongErr)
		s.Equal(unknownErr.Error(), wrongErr.Error())
	})

	s.Run("store failure returns internal", func() {
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "user1@ex.ax").Return(nil, errors.New("connection refused"))

		_, err := s.service.Login(s.ctx, "user1@ex.ax", "hunter22")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestLogout() {
	principal := id.Principal{ID: id.NewUserID(), Email: "user1@ex.ax", Role: id.RoleUser}
	expiry := s.now.Add(config.TokenTTL)

	s.Run("records the token until its own expiry", func() {
		s.mockTokens.EXPECT().ExtractExpiry("signed-token").Return(expiry, nil)
		s.mockRevocations.EXPECT().Record(gomock.Any(), "signed-token", expiry).Return(nil)
		s.mockAuditor.EXPECT().Emit(gomock.Any()).Do(func(e audit.Event) {
			s.Equal(audit.ActionLogout, e.Action)
		})

		s.Require().NoError(s.service.Logout(s.ctx, principal, "signed-token"))
	})

	s.Run("missing token returns bad request", func() {
		err := s.service.Logout(s.ctx, principal, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("malformed token returns bad request", func() {
		s.mockTokens.EXPECT().ExtractExpiry("garbage").Return(time.Time{}, errors.New("invalid token"))

		err := s.service.Logout(s.ctx, principal, "garbage")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("revocation store failure returns internal", func() {
		s.mockTokens.EXPECT().ExtractExpiry("signed-token").Return(expiry, nil)
		s.mockRevocations.EXPECT().Record(gomock.Any(), "signed-token", expiry).Return(errors.New("connection refused"))

		err := s.service.Logout(s.ctx, principal, "signed-token")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
