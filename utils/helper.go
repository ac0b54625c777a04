package utils

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/suvidhaworks/bizbooks_backend/config"
)

var mutex sync.Mutex

func NewTrue() *bool {
	b := true
	return &b
}

// get type name of struct
func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// GetSequence hands out the next per-business document sequence number for T.
// The counter lives in Redis; a fresh counter (or a flushed cache) is seeded
// from MAX(sequence_no) in the database. The unique index on the document
// number remains the real serialization point across instances; this only
// keeps the happy path collision-free.
func GetSequence[T any](ctx context.Context, businessId string) (int64, error) {
	var model T
	_ = model
	mutex.Lock()
	defer mutex.Unlock()
	cacheKey := businessId + "-" + strings.ToLower(GetTypeName[T]()) + "_seq"
	var seqNo int64
	var err error
	db := config.GetDB()

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// if not found in redis, get from db
		if seqNo <= 1 {
			// get max seq no from db
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Where("business_id = ?", businessId).
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			// in case db has no records yet
			if dbSeq == nil {
				seqNo = 0
			} else {
				seqNo = *dbSeq
			}
			seqNo++
			if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
				return 0, err
			}
		}
		// check if sequence number exists in db
		err = ValidateUnique[T](ctx, businessId, "sequence_no", seqNo, 0)
		if err == nil {
			break
		}
	}
	return seqNo, nil
}
