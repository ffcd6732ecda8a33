package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/noodle-rush/internal/models"
)

func TestSaveSlotRepository_PutAndGet(t *testing.T) {
	db := TestDB(t)
	repo := NewSaveSlotRepository(db)
	ctx := context.Background()

	data := []byte(`{"game_progress":{"current_period":3}}`)
	require.NoError(t, repo.Put(ctx, models.SaveKeyCurrent, data, 3))

	slot, err := repo.Get(ctx, models.SaveKeyCurrent)
	require.NoError(t, err)
	assert.Equal(t, string(data), slot.Data)
	assert.Equal(t, 3, slot.Period)
	assert.Equal(t, Checksum(data), slot.Checksum)

	// 覆盖写入
	data2 := []byte(`{"game_progress":{"current_period":4}}`)
	require.NoError(t, repo.Put(ctx, models.SaveKeyCurrent, data2, 4))

	slot, err = repo.Get(ctx, models.SaveKeyCurrent)
	require.NoError(t, err)
	assert.Equal(t, string(data2), slot.Data)
	assert.Equal(t, 4, slot.Period)

	var count int64
	db.Model(&models.SaveSlot{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSaveSlotRepository_GetMissing(t *testing.T) {
	repo := NewSaveSlotRepository(TestDB(t))

	_, err := repo.Get(context.Background(), models.SaveKeyBackup)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestSaveSlotRepository_ChecksumMismatch(t *testing.T) {
	db := TestDB(t)
	repo := NewSaveSlotRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, models.SaveKeyCurrent, []byte(`{"a":1}`), 1))

	// 模拟存档被外部篡改
	require.NoError(t, db.Model(&models.SaveSlot{}).
		Where(&models.SaveSlot{Key: models.SaveKeyCurrent}).
		Update("data", `{"a":2}`).Error)

	slot, err := repo.Get(ctx, models.SaveKeyCurrent)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	assert.NotNil(t, slot)
}

func TestSaveSlotRepository_ExistsCopyDelete(t *testing.T) {
	repo := NewSaveSlotRepository(TestDB(t))
	ctx := context.Background()

	exists, err := repo.Exists(ctx, models.SaveKeyCurrent)
	require.NoError(t, err)
	assert.False(t, exists)

	// 源不存在时复制失败
	assert.ErrorIs(t, repo.Copy(ctx, models.SaveKeyCurrent, models.SaveKeyBackup), ErrSlotNotFound)

	require.NoError(t, repo.Put(ctx, models.SaveKeyCurrent, []byte(`{"p":7}`), 7))
	require.NoError(t, repo.Copy(ctx, models.SaveKeyCurrent, models.SaveKeyBackup))

	backup, err := repo.Get(ctx, models.SaveKeyBackup)
	require.NoError(t, err)
	assert.Equal(t, `{"p":7}`, backup.Data)
	assert.Equal(t, 7, backup.Period)

	require.NoError(t, repo.Delete(ctx, models.SaveKeyCurrent))
	exists, err = repo.Exists(ctx, models.SaveKeyCurrent)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.Exists(ctx, models.SaveKeyBackup)
	require.NoError(t, err)
	assert.True(t, exists)
}
