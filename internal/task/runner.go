package task

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// job 一个定时同步任务：cron 调度 + 同一时间只允许一次运行
type job struct {
	name    string
	spec    string
	timeout time.Duration
	cron    *cron.Cron
	running atomic.Bool
	logger  *zap.Logger
}

func newJob(name, spec string, timeout time.Duration, logger *zap.Logger) *job {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &job{
		name:    name,
		spec:    spec,
		timeout: timeout,
		cron:    cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{logger})),
		logger:  logger,
	}
}

// start 注册 cron；上一轮未结束时本轮跳过
func (j *job) start(fn func(ctx context.Context) error) error {
	_, err := j.cron.AddFunc(j.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if err := j.runExclusive(ctx, fn); err != nil && err != ErrTaskRunning {
			j.logger.Error("定时任务执行失败", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("定时任务已启动", zap.String("spec", j.spec))
	return nil
}

func (j *job) stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("定时任务已停止")
}

// runExclusive 已有运行中的同步时返回 ErrTaskRunning
func (j *job) runExclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	if !j.running.CompareAndSwap(false, true) {
		j.logger.Warn("上一次同步尚未结束，跳过")
		return ErrTaskRunning
	}
	defer j.running.Store(false)

	start := time.Now()
	err := fn(ctx)
	j.logger.Info("同步结束", zap.Duration("elapsed", time.Since(start)), zap.Bool("ok", err == nil))
	return err
}

// Running 是否有运行中的同步
func (j *job) Running() bool {
	return j.running.Load()
}

// cronLogger 把 cron 内部日志接到 zap
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
