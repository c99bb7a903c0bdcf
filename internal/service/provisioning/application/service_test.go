// internal/service/provisioning/application/service_test.go
package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"lumina/internal/service/provisioning/domain"
	"lumina/internal/service/provisioning/domain/port"
)

// fakeOrderRepo 以 (token, email) 为键保存订单
type fakeOrderRepo struct {
	orders     map[string]*domain.Order // key: token + "|" + email
	byID       map[string]*domain.Order
	consumed   []string
	consumeErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[string]*domain.Order),
		byID:   make(map[string]*domain.Order),
	}
}

func (f *fakeOrderRepo) add(order *domain.Order) {
	if order.ProvisioningToken != nil {
		f.orders[*order.ProvisioningToken+"|"+order.CustomerEmail] = order
	}
	f.byID[order.ID] = order
}

func (f *fakeOrderRepo) FindByToken(_ context.Context, token, email string) (*domain.Order, error) {
	order, ok := f.orders[token+"|"+email]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) ConsumeToken(_ context.Context, orderID string, now time.Time) error {
	if f.consumeErr != nil {
		return f.consumeErr
	}
	f.consumed = append(f.consumed, orderID)
	if order, ok := f.byID[orderID]; ok {
		if order.ProvisioningToken != nil {
			delete(f.orders, *order.ProvisioningToken+"|"+order.CustomerEmail)
		}
		order.ConsumeToken(now)
	}
	return nil
}

type fakeCommitRepo struct {
	commits map[string]*domain.ProvisionCommit
}

func newFakeCommitRepo() *fakeCommitRepo {
	return &fakeCommitRepo{commits: make(map[string]*domain.ProvisionCommit)}
}

func (f *fakeCommitRepo) Record(_ context.Context, commit *domain.ProvisionCommit) error {
	copied := *commit
	f.commits[commit.ID] = &copied
	return nil
}

func (f *fakeCommitRepo) MarkOrderUpdated(_ context.Context, commitID string, now time.Time) error {
	if c, ok := f.commits[commitID]; ok {
		c.MarkOrderUpdated(now)
	}
	return nil
}

func (f *fakeCommitRepo) FindPending(_ context.Context, olderThan time.Time, limit int) ([]*domain.ProvisionCommit, error) {
	var out []*domain.ProvisionCommit
	for _, c := range f.commits {
		if c.Pending() && c.UpdatedAt.Before(olderThan) && len(out) < limit {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeIdentity struct {
	calls    int
	err      error
	existing map[string]bool
}

func (f *fakeIdentity) CreateIdentity(_ context.Context, email, _ string) (*port.Identity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.existing[email] {
		return nil, port.ErrEmailTaken
	}
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[email] = true
	return &port.Identity{ID: "acct-" + email, Email: email}, nil
}

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func guestOrder(token string, expiry time.Time) *domain.Order {
	tok := token
	exp := expiry
	return &domain.Order{
		ID:                      "order-1",
		CustomerEmail:           "u@x.com",
		Amount:                  49.90,
		Currency:                "EUR",
		ServiceTitle:            "Intro to Watercolor",
		PaymentMethod:           domain.PaymentCard,
		Status:                  domain.StatusCompleted,
		ProvisioningToken:       &tok,
		ProvisioningTokenExpiry: &exp,
		IsGuestCheckout:         true,
	}
}

func newService(orders domain.OrderRepository, commits domain.CommitRepository, identity port.IdentityProvider) *ProvisioningService {
	svc := NewProvisioningService(orders, commits, identity, otel.Tracer("test"))
	return svc.WithClock(func() time.Time { return fixedNow })
}

func TestValidateToken_MissingInput(t *testing.T) {
	svc := newService(newFakeOrderRepo(), newFakeCommitRepo(), &fakeIdentity{})

	_, err := svc.ValidateToken(context.Background(), "", "u@x.com")
	assert.ErrorIs(t, err, domain.ErrMissingInput)

	_, err = svc.ValidateToken(context.Background(), "abc", "")
	assert.ErrorIs(t, err, domain.ErrMissingInput)
}

func TestValidateToken_NotFound(t *testing.T) {
	svc := newService(newFakeOrderRepo(), newFakeCommitRepo(), &fakeIdentity{})

	_, err := svc.ValidateToken(context.Background(), "abc", "u@x.com")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestValidateToken_WrongEmailIsNotFound(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add(guestOrder("abc", fixedNow.Add(time.Hour)))
	svc := newService(repo, newFakeCommitRepo(), &fakeIdentity{})

	// 邮箱不符与 token 未知对调用方不可区分
	_, err := svc.ValidateToken(context.Background(), "abc", "other@x.com")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestValidateToken_Expired(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add(guestOrder("abc", fixedNow.Add(-time.Second)))
	svc := newService(repo, newFakeCommitRepo(), &fakeIdentity{})

	_, err := svc.ValidateToken(context.Background(), "abc", "u@x.com")
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestValidateToken_ExpiredEvenWhenConsumed(t *testing.T) {
	order := guestOrder("abc", fixedNow.Add(-time.Second))
	order.PasswordSet = true
	repo := newFakeOrderRepo()
	repo.add(order)
	svc := newService(repo, newFakeCommitRepo(), &fakeIdentity{})

	// 过期判定先于 AlreadyUsed 判定
	_, err := svc.ValidateToken(context.Background(), "abc", "u@x.com")
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestValidateToken_AlreadyUsedDefensiveCheck(t *testing.T) {
	// 正常情况下 token 消费时已被清除；这里构造带残留 token 的订单
	// 模拟部分失败窗口，防御性检查必须拦住它
	order := guestOrder("abc", fixedNow.Add(time.Hour))
	order.PasswordSet = true
	repo := newFakeOrderRepo()
	repo.add(order)
	svc := newService(repo, newFakeCommitRepo(), &fakeIdentity{})

	_, err := svc.ValidateToken(context.Background(), "abc", "u@x.com")
	assert.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
}

func TestValidateToken_IsSideEffectFree(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add(guestOrder("abc", fixedNow.Add(time.Hour)))
	svc := newService(repo, newFakeCommitRepo(), &fakeIdentity{})

	for i := 0; i < 3; i++ {
		order, err := svc.ValidateToken(context.Background(), "abc", "u@x.com")
		require.NoError(t, err)
		assert.Equal(t, "order-1", order.ID)
	}
	assert.Empty(t, repo.consumed)
}

func TestProvision_WeakPassword(t *testing.T) {
	identity := &fakeIdentity{}
	repo := newFakeOrderRepo()
	repo.add(guestOrder("abc", fixedNow.Add(time.Hour)))
	svc := newService(repo, newFakeCommitRepo(), identity)

	_, err := svc.Provision(context.Background(), &ProvisionRequest{
		Token: "abc", Email: "u@x.com", Password: "short", ConfirmPassword: "short",
	})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)
	// 密码校验失败时不允许触达身份服务
	assert.Zero(t, identity.calls)
}

func TestProvision_PasswordMismatch(t *testing.T) {
	identity := &fakeIdentity{}
	svc := newService(newFakeOrderRepo(), newFakeCommitRepo(), identity)

	_, err := svc.Provision(context.Background(), &ProvisionRequest{
		Token: "abc", Email: "u@x.com", Password: "secret1", ConfirmPassword: "secret2",
	})
	assert.ErrorIs(t, err, domain.ErrPasswordMismatch)
	assert.Zero(t, identity.calls)
}

func TestProvision_AccountExistsLeavesOrderUntouched(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add(guestOrder("abc", fixedNow.Add(time.Hour)))
	identity := &fakeIdentity{existing: map[string]bool{"u@x.com": true}}
	svc := newService(repo, newFakeCommitRepo(), identity)

	_, err := svc.Provision(context.Background(), &ProvisionRequest{
		Token: "abc", Email: "u@x.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	assert.ErrorIs(t, err, domain.ErrAccountExists)

	// 订单必须原样保留，token 仍然有效
	order := repo.byID["order-1"]
	assert.False(t, order.PasswordSet)
	require.NotNil(t, order.ProvisioningToken)
	assert.Equal(t, "abc", *order.ProvisioningToken)
	assert.Empty(t, repo.consumed)
}

func TestProvision_IdentityProviderErrorSurfacedVerbatim(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add(guestOrder("abc", fixedNow.Add(time.Hour)))
	identity := &fakeIdentity{err: &domain.IdentityProviderError{Message: "upstream quota exceeded"}}
	svc := newService(repo, newFakeCommitRepo(), identity)

	_, err := svc.Provision(context.Background(), &ProvisionRequest{
		Token: "abc", Email: "u@x.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	var ipErr *domain.IdentityProviderError
	require.ErrorAs(t, err, &ipErr)
	assert.Contains(t, ipErr.Message, "upstream quota exceeded")
}

func TestProvision_SuccessConsumesTokenAndNoReplay(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add(guestOrder("abc", fixedNow.Add(time.Hour)))
	commits := newFakeCommitRepo()
	svc := newService(repo, commits, &fakeIdentity{})

	resp, err := svc.Provision(context.Background(), &ProvisionRequest{
		Token: "abc", Email: "u@x.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", resp.OrderID)
	assert.Equal(t, "acct-u@x.com", resp.AccountID)

	// token 已消费: 字段清除 + 标记置位
	order := repo.byID["order-1"]
	assert.True(t, order.PasswordSet)
	assert.True(t, order.AccountLinked)
	assert.Nil(t, order.ProvisioningToken)
	assert.Nil(t, order.ProvisioningTokenExpiry)
	require.NotNil(t, order.PasswordSetAt)
	assert.Equal(t, fixedNow, *order.PasswordSetAt)

	// 提交记录完整走完两步
	require.Len(t, commits.commits, 1)
	for _, c := range commits.commits {
		assert.Equal(t, domain.CommitOrderUpdated, c.State)
	}

	// 重放同一链接: token 已清除，必须是 NotFound，绝不能再次 VALID
	_, err = svc.ValidateToken(context.Background(), "abc", "u@x.com")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestProvision_OrderUpdateFailureLeavesPendingCommit(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add(guestOrder("abc", fixedNow.Add(time.Hour)))
	repo.consumeErr = errors.New("store unavailable")
	commits := newFakeCommitRepo()
	svc := newService(repo, commits, &fakeIdentity{})

	_, err := svc.Provision(context.Background(), &ProvisionRequest{
		Token: "abc", Email: "u@x.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	assert.ErrorIs(t, err, domain.ErrStore)

	// 部分失败窗口: 身份已建而订单未写，提交记录停留在第一步
	require.Len(t, commits.commits, 1)
	for _, c := range commits.commits {
		assert.True(t, c.Pending())
	}
}

func TestRepairPendingCommits_ClosesPartialFailureWindow(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.add(guestOrder("abc", fixedNow.Add(time.Hour)))
	repo.consumeErr = errors.New("store unavailable")
	commits := newFakeCommitRepo()
	svc := newService(repo, commits, &fakeIdentity{})

	_, err := svc.Provision(context.Background(), &ProvisionRequest{
		Token: "abc", Email: "u@x.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	require.ErrorIs(t, err, domain.ErrStore)

	// 存储恢复后，修复任务补齐第二步
	repo.consumeErr = nil
	svc.WithClock(func() time.Time { return fixedNow.Add(10 * time.Minute) })

	repaired, err := svc.RepairPendingCommits(context.Background(), 5*time.Minute, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	order := repo.byID["order-1"]
	assert.True(t, order.PasswordSet)
	assert.Nil(t, order.ProvisioningToken)
	for _, c := range commits.commits {
		assert.Equal(t, domain.CommitOrderUpdated, c.State)
	}
}
