// internal/service/provisioning/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lumina/internal/pkg/logger"
	"lumina/internal/service/provisioning/domain"
	"lumina/internal/service/provisioning/domain/port"
)

const minPasswordLength = 6

// ProvisioningService 负责开通流程的编排:
// token 校验（只读）与两步提交的账号开通（身份创建 → 订单更新）。
type ProvisioningService struct {
	orders   domain.OrderRepository
	commits  domain.CommitRepository
	identity port.IdentityProvider
	tracer   trace.Tracer

	// now 可注入，测试中用它控制过期判定
	now func() time.Time
}

// NewProvisioningService 创建开通服务实例
func NewProvisioningService(orders domain.OrderRepository, commits domain.CommitRepository, identity port.IdentityProvider, tracer trace.Tracer) *ProvisioningService {
	return &ProvisioningService{
		orders:   orders,
		commits:  commits,
		identity: identity,
		tracer:   tracer,
		now:      time.Now,
	}
}

// WithClock 替换时间源，仅用于测试
func (s *ProvisioningService) WithClock(now func() time.Time) *ProvisioningService {
	s.now = now
	return s
}

// ValidateToken 校验一次开通链接，成功时返回完整订单供后续编排使用。
// 校验是幂等且无副作用的: 无论结果如何都不修改订单。
func (s *ProvisioningService) ValidateToken(ctx context.Context, token, email string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.ValidateToken")
	defer span.End()

	if token == "" || email == "" {
		// 缺参直接拒绝，不发起查询
		return nil, domain.ErrMissingInput
	}

	order, err := s.orders.FindByToken(ctx, token, email)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			span.AddEvent("No order matches token and email.")
			return nil, domain.ErrTokenNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "order store lookup failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	span.SetAttributes(attribute.String("order.id", order.ID))

	if err := order.CheckToken(s.now()); err != nil {
		span.AddEvent("Token rejected: " + err.Error())
		return nil, err
	}
	return order, nil
}

// Provision 完成一次账号开通。流程刻意不做跨步骤的原子性:
// 第 1 步创建身份（邮箱冲突即终止，绝不覆盖既有账号的凭证），
// 第 2 步消费 token 更新订单。两步之间的部分失败窗口由提交记录
// 和 RepairPendingCommits 兜底，而不是引入分布式事务。
func (s *ProvisioningService) Provision(ctx context.Context, req *ProvisionRequest) (*ProvisionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.Provision")
	defer span.End()

	// 调用方已校验过密码规则，这里防御性地再查一遍
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	if req.Password != req.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	order, err := s.ValidateToken(ctx, req.Token, req.Email)
	if err != nil {
		return nil, err
	}

	// 第 1 步: 创建身份。邮箱唯一性约束是并发开通的唯一护栏。
	identity, err := s.identity.CreateIdentity(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, port.ErrEmailTaken) {
			span.AddEvent("Identity already exists, refusing to touch existing credentials.")
			logger.Ctx(ctx).Info().Str("order_id", order.ID).Msg("provisioning rejected: account already exists")
			return nil, domain.ErrAccountExists
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "identity creation failed")
		return nil, err
	}
	span.AddEvent("Identity created.")

	// 记录两态提交的第一步。记录失败不终止流程（身份已经存在），
	// 但会丢失修复线索，按 CRITICAL 记日志。
	commit := domain.NewProvisionCommit(uuid.New().String(), order.ID, req.Email, s.now())
	if err := s.commits.Record(ctx, commit); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).
			Msg("CRITICAL: identity created but commit record could not be written")
	}

	// 第 2 步: 消费 token。失败时账号已可用而 token 看似有效，
	// 这是已知的部分失败窗口: 提交记录停留在 IDENTITY_CREATED，
	// 修复任务会补齐这次写入；重放该链接也会被第 1 步的冲突检查拦下。
	if err := s.orders.ConsumeToken(ctx, order.ID, s.now()); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).
			Msg("CRITICAL: identity created but order update failed, commit left pending for repair")
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	if err := s.commits.MarkOrderUpdated(ctx, commit.ID, s.now()); err != nil {
		// 订单已经写成功，提交记录推进失败只会造成一次多余的修复扫描
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("could not advance commit record")
	}

	logger.Ctx(ctx).Info().Str("order_id", order.ID).Msgf("INFO: [Order: %s] Account provisioned and token consumed.", order.ID)
	return &ProvisionResponse{
		AccountID: identity.ID,
		Email:     identity.Email,
		OrderID:   order.ID,
	}, nil
}

// RepairPendingCommits 扫描停留在 IDENTITY_CREATED 超过 minAge 的提交记录，
// 补齐第 2 步的订单写入。返回本轮修复的数量。
func (s *ProvisioningService) RepairPendingCommits(ctx context.Context, minAge time.Duration, limit int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.RepairPendingCommits")
	defer span.End()

	pending, err := s.commits.FindPending(ctx, s.now().Add(-minAge), limit)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	repaired := 0
	for _, commit := range pending {
		order, err := s.orders.FindByID(ctx, commit.OrderID)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("order_id", commit.OrderID).Msg("repair: cannot load order, skipping")
			continue
		}
		if !order.PasswordSet {
			if err := s.orders.ConsumeToken(ctx, order.ID, s.now()); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("repair: order update failed, will retry next pass")
				continue
			}
			logger.Ctx(ctx).Info().Msgf("INFO: [Order: %s] Repair pass consumed a stale token.", order.ID)
		}
		if err := s.commits.MarkOrderUpdated(ctx, commit.ID, s.now()); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("repair: could not advance commit record")
			continue
		}
		repaired++
	}

	span.SetAttributes(attribute.Int("repair.pending", len(pending)), attribute.Int("repair.repaired", repaired))
	return repaired, nil
}
