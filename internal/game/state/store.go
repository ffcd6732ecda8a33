package state

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Handler 变更通知处理函数。doc 为只读快照，处理函数内不得同步调用 Update。
type Handler func(doc *Document)

// SubscriptionID 订阅ID
type SubscriptionID uint64

// Store 唯一的游戏状态存储。
// 所有修改都经过 Update：在副本上执行变换、修复不变量、替换文档并同步发出一次通知，随后异步保存。
type Store struct {
	mu       sync.RWMutex
	updateMu sync.Mutex
	doc      *Document

	persistence    Persistence
	newGame        func() *Document
	logger         *zap.Logger
	onPersistError func(error)

	subMu  sync.RWMutex
	subs   map[SubscriptionID]Handler
	nextID SubscriptionID

	saveWG   sync.WaitGroup
	saveMu   sync.Mutex
	saveSeq  uint64
	savedSeq uint64
}

// Option 存储选项
type Option func(*Store)

// WithPersistence 设置存档协作者
func WithPersistence(p Persistence) Option {
	return func(s *Store) {
		s.persistence = p
	}
}

// WithNewGame 设置新游戏文档的创建方式
func WithNewGame(fn func() *Document) Option {
	return func(s *Store) {
		s.newGame = fn
	}
}

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPersistErrorHook 保存失败时回调
func WithPersistErrorHook(fn func(error)) Option {
	return func(s *Store) {
		s.onPersistError = fn
	}
}

// NewStore 创建状态存储
func NewStore(opts ...Option) *Store {
	s := &Store{
		logger: zap.NewNop(),
		subs:   make(map[SubscriptionID]Handler),
		newGame: func() *Document {
			return NewDocument(DefaultNewGameOptions())
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get 返回当前文档的深拷贝，首次访问时从存档加载或创建新游戏
func (s *Store) Get(ctx context.Context) *Document {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Loaded 文档是否已初始化
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc != nil
}

// Update 在当前文档的副本上执行变换。
// 变换返回错误时丢弃副本，不修改、不通知；成功时替换文档、通知订阅者并异步保存。
func (s *Store) Update(ctx context.Context, transform func(doc *Document) error) (*Document, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	s.ensureLoaded(ctx)

	s.mu.RLock()
	next := s.doc.Clone()
	prevBalance := s.doc.Finances.TotalBalance
	s.mu.RUnlock()

	if err := transform(next); err != nil {
		return nil, err
	}

	if repairs := Normalize(next); len(repairs) > 0 {
		s.logger.Warn("状态修复", zap.Strings("repairs", repairs))
	}
	if next.Finances.TotalBalance < prevBalance {
		s.logger.Warn("累计余额不可减少，已恢复",
			zap.Int64("before", prevBalance),
			zap.Int64("after", next.Finances.TotalBalance))
		next.Finances.TotalBalance = prevBalance
	}

	s.commit(ctx, next)
	return next.Clone(), nil
}

// Reset 用新游戏文档替换当前文档
func (s *Store) Reset(ctx context.Context) *Document {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	doc := s.newGame()
	Normalize(doc)
	s.commit(ctx, doc)

	s.logger.Info("新游戏已创建")
	return doc.Clone()
}

// Replace 用给定文档替换当前文档（读档、恢复时使用）
func (s *Store) Replace(ctx context.Context, doc *Document) *Document {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	next := doc.Clone()
	if repairs := Normalize(next); len(repairs) > 0 {
		s.logger.Warn("载入文档时修复状态", zap.Strings("repairs", repairs))
	}
	s.commit(ctx, next)
	return next.Clone()
}

// Subscribe 订阅变更通知
func (s *Store) Subscribe(handler Handler) SubscriptionID {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	s.subs[s.nextID] = handler
	return s.nextID
}

// Unsubscribe 取消订阅
func (s *Store) Unsubscribe(id SubscriptionID) bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if _, ok := s.subs[id]; !ok {
		return false
	}
	delete(s.subs, id)
	return true
}

// Flush 等待进行中的异步保存完成
func (s *Store) Flush() {
	s.saveWG.Wait()
}

// commit 替换文档、通知并异步保存，调用方持有 updateMu
func (s *Store) commit(ctx context.Context, next *Document) {
	s.mu.Lock()
	s.doc = next
	s.mu.Unlock()

	s.notify(next.Clone())
	s.persistAsync(ctx, next)
}

// ensureLoaded 延迟初始化：读取存档，失败或不存在时创建新游戏
func (s *Store) ensureLoaded(ctx context.Context) {
	s.mu.RLock()
	loaded := s.doc != nil
	s.mu.RUnlock()
	if loaded {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil {
		return
	}

	if s.persistence != nil {
		doc, err := s.persistence.Load(ctx)
		switch {
		case err != nil:
			s.logger.Warn("读取存档失败，创建新游戏", zap.Error(err))
		case doc != nil:
			Normalize(doc)
			s.doc = doc
			s.logger.Info("存档已载入", zap.Int("period", doc.GameProgress.CurrentPeriod))
			return
		}
	}

	doc := s.newGame()
	Normalize(doc)
	s.doc = doc
}

// notify 按订阅顺序同步通知
func (s *Store) notify(doc *Document) {
	s.subMu.RLock()
	ids := make([]SubscriptionID, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, s.subs[id])
	}
	s.subMu.RUnlock()

	for _, h := range handlers {
		h(doc)
	}
}

// persistAsync 异步保存，较旧的快照不会覆盖较新的
func (s *Store) persistAsync(ctx context.Context, doc *Document) {
	if s.persistence == nil {
		return
	}

	s.saveSeq++
	seq := s.saveSeq
	ctx = context.WithoutCancel(ctx)

	s.saveWG.Add(1)
	go func() {
		defer s.saveWG.Done()

		s.saveMu.Lock()
		defer s.saveMu.Unlock()
		if seq < s.savedSeq {
			return
		}

		if err := s.persistence.Save(ctx, doc); err != nil {
			s.logger.Warn("存档保存失败，内存状态保持不变",
				zap.Uint64("seq", seq),
				zap.Error(err))
			if s.onPersistError != nil {
				s.onPersistError(err)
			}
			return
		}
		s.savedSeq = seq
	}()
}
