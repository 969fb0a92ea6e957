package gameserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/cultivation/internal/game/character"
	"github.com/cory-johannsen/cultivation/internal/game/combat"
	"github.com/cory-johannsen/cultivation/internal/game/content"
	"github.com/cory-johannsen/cultivation/internal/game/dice"
	"github.com/cory-johannsen/cultivation/internal/game/monster"
	"github.com/cory-johannsen/cultivation/internal/game/realm"
	"github.com/cory-johannsen/cultivation/internal/gameserver"
	"github.com/cory-johannsen/cultivation/internal/storage"
	"github.com/cory-johannsen/cultivation/internal/testutil"
)

// memStore keeps deep copies so that unsaved mutations never leak back.
type memStore struct {
	mu      sync.Mutex
	byName  map[string][]byte
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{byName: make(map[string][]byte)}
}

func (s *memStore) put(t *testing.T, c *character.Character) {
	t.Helper()
	data, err := json.Marshal(c)
	require.NoError(t, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[c.Name] = data
}

func (s *memStore) get(t *testing.T, name string) *character.Character {
	t.Helper()
	c, err := s.GetByName(context.Background(), name)
	require.NoError(t, err)
	return c
}

func (s *memStore) Create(_ context.Context, c *character.Character) (*character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[c.Name]; ok {
		return nil, storage.ErrCharacterNameTaken
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	s.byName[c.Name] = data
	var out character.Character
	return &out, json.Unmarshal(data, &out)
}

func (s *memStore) GetByName(_ context.Context, name string) (*character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.byName[name]
	if !ok {
		return nil, storage.ErrCharacterNotFound
	}
	var out character.Character
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *memStore) Save(_ context.Context, c *character.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, ok := s.byName[c.Name]; !ok {
		return storage.ErrCharacterNotFound
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.byName[c.Name] = data
	s.saves++
	return nil
}

func loadRegistry(t *testing.T) *content.Registry {
	t.Helper()
	reg := content.NewRegistry()
	require.NoError(t, reg.Load(filepath.Join("..", "..", "content")))
	return reg
}

// newService wires the real engine and resolver over src.
func newService(t *testing.T, store *memStore, src dice.Source) *gameserver.Service {
	t.Helper()
	logger := zaptest.NewLogger(t)
	reg := loadRegistry(t)
	roller := dice.NewLoggedRoller(src, logger)
	gen := monster.NewGenerator(reg, roller, logger)
	eng := combat.NewEngine(gen, roller, nil, character.DefaultLeveler, combat.DefaultSettings(), logger)
	res := realm.NewResolver(reg, roller, nil, logger)
	return gameserver.NewService(store, eng, res, reg, logger)
}

func TestService_CreateCharacter(t *testing.T) {
	store := newMemStore()
	svc := newService(t, store, dice.NewSeededSource(1))

	c, err := svc.CreateCharacter(context.Background(), "韩立", "三灵根")
	require.NoError(t, err)
	assert.Equal(t, "韩立", c.Name)
	assert.Equal(t, character.InitialRealm, c.Realm)

	_, err = svc.CreateCharacter(context.Background(), "韩立", "三灵根")
	assert.ErrorIs(t, err, storage.ErrCharacterNameTaken)
}

func TestService_CreateCharacter_UnknownRoot(t *testing.T) {
	store := newMemStore()
	svc := newService(t, store, dice.NewSeededSource(1))
	_, err := svc.CreateCharacter(context.Background(), "韩立", "七彩灵根")
	assert.ErrorIs(t, err, gameserver.ErrUnknownSpiritRoot)
	_, err = store.GetByName(context.Background(), "韩立")
	assert.ErrorIs(t, err, storage.ErrCharacterNotFound)
}

func TestService_StartCombatPersistsSnapshot(t *testing.T) {
	store := newMemStore()
	svc := newService(t, store, dice.NewSeededSource(7))
	ctx := context.Background()
	_, err := svc.CreateCharacter(ctx, "韩立", "三灵根")
	require.NoError(t, err)

	res, err := svc.StartCombat(ctx, "韩立", "grey_wolf")
	require.NoError(t, err)
	assert.Equal(t, combat.OutcomeStarted, res.Outcome)
	assert.True(t, store.get(t, "韩立").InCombat())

	st, err := svc.Status(ctx, "韩立")
	require.NoError(t, err)
	require.NotNil(t, st.Combat)
	assert.Equal(t, "grey_wolf", st.Combat.MonsterID)
	assert.Equal(t, 1, st.Combat.Round)
	assert.Equal(t, "毫发无伤", st.MonsterCondition)
	assert.Nil(t, st.Next, "level 1 has no open breakthrough")
	assert.Equal(t, st.Character.Profile(), st.Profile)
}

func TestService_RejectedStepIsNotSaved(t *testing.T) {
	store := newMemStore()
	svc := newService(t, store, dice.NewSeededSource(7))
	ctx := context.Background()
	_, err := svc.CreateCharacter(ctx, "韩立", "三灵根")
	require.NoError(t, err)

	_, err = svc.Attack(ctx, "韩立")
	assert.ErrorIs(t, err, combat.ErrNotInCombat)
	_, err = svc.StartCombat(ctx, "韩立", "no_such_beast")
	assert.ErrorIs(t, err, monster.ErrTemplateNotFound)
	_, err = svc.Breakthrough(ctx, "韩立")
	assert.ErrorIs(t, err, realm.ErrNotEligible)
	assert.Equal(t, 0, store.saves)
}

func TestService_UnknownCharacter(t *testing.T) {
	svc := newService(t, newMemStore(), dice.NewSeededSource(1))
	_, err := svc.Status(context.Background(), "nobody")
	assert.ErrorIs(t, err, storage.ErrCharacterNotFound)
	_, err = svc.Flee(context.Background(), "nobody")
	assert.ErrorIs(t, err, storage.ErrCharacterNotFound)
}

func TestService_BreakthroughSavesAdvancement(t *testing.T) {
	store := newMemStore()
	c, err := character.New("韩立", "三灵根")
	require.NoError(t, err)
	c.Level = 10
	c.SpiritStones = 600
	store.put(t, c)

	// No tribulation below 筑基期, so the only draw is the primary roll.
	svc := newService(t, store, testutil.NewScriptedSource(t, 0.0))
	res, err := svc.Breakthrough(context.Background(), "韩立")
	require.NoError(t, err)
	assert.True(t, res.Success)

	saved := store.get(t, "韩立")
	assert.Equal(t, "炼气期", saved.Realm)
	assert.Equal(t, 100, saved.SpiritStones)
	assert.Equal(t, 1, store.saves)

	st, err := svc.Status(context.Background(), "韩立")
	require.NoError(t, err)
	assert.Nil(t, st.Next, "炼气期 opens at level 25")
}

func TestService_SaveFailureIsReported(t *testing.T) {
	store := newMemStore()
	svc := newService(t, store, dice.NewSeededSource(3))
	ctx := context.Background()
	_, err := svc.CreateCharacter(ctx, "韩立", "三灵根")
	require.NoError(t, err)

	store.saveErr = errors.New("disk full")
	_, err = svc.StartCombat(ctx, "韩立", "grey_wolf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	store.saveErr = nil
	assert.False(t, store.get(t, "韩立").InCombat())
}

// exclusiveCombat fails the test if two steps for the same character overlap.
type exclusiveCombat struct {
	inFlight atomic.Int32
	overlap  atomic.Bool
	calls    atomic.Int32
}

func (e *exclusiveCombat) step(ch *character.Character) (*combat.Result, error) {
	if e.inFlight.Add(1) > 1 {
		e.overlap.Store(true)
	}
	defer e.inFlight.Add(-1)
	e.calls.Add(1)
	ch.Exp++
	return &combat.Result{Outcome: combat.OutcomeContinue}, nil
}

func (e *exclusiveCombat) Start(_ context.Context, ch *character.Character, _ string) (*combat.Result, error) {
	return e.step(ch)
}

func (e *exclusiveCombat) PlayerAttack(_ context.Context, ch *character.Character) (*combat.Result, error) {
	return e.step(ch)
}

func (e *exclusiveCombat) AttemptFlee(_ context.Context, ch *character.Character) (*combat.Result, error) {
	return e.step(ch)
}

func TestService_SerializesActionsPerCharacter(t *testing.T) {
	store := newMemStore()
	c, err := character.New("韩立", "三灵根")
	require.NoError(t, err)
	store.put(t, c)

	fight := &exclusiveCombat{}
	svc := gameserver.NewService(store, fight, nil, loadRegistry(t), zap.NewNop())

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Attack(context.Background(), "韩立")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, fight.overlap.Load())
	assert.Equal(t, int32(n), fight.calls.Load())
	assert.Equal(t, n, store.get(t, "韩立").Exp, "every increment survives the load-save cycle")
}
