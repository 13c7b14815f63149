package utils

import (
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// BBoxListPool is a pool of reusable BBox slices used by broad phase queries.
var BBoxListPool = sync.Pool{
	New: func() any {
		s := make([]cube.BBox, 0, 32)
		return &s
	},
}

// GetBBoxList retrieves an empty BBox slice from the pool.
func GetBBoxList() *[]cube.BBox {
	list := BBoxListPool.Get().(*[]cube.BBox)
	*list = (*list)[:0]
	return list
}

// PutBBoxList returns a BBox slice to the pool.
func PutBBoxList(list *[]cube.BBox) {
	if list != nil {
		*list = (*list)[:0]
		BBoxListPool.Put(list)
	}
}

// IndexListPool is a pool of reusable index slices.
var IndexListPool = sync.Pool{
	New: func() any {
		s := make([]int, 0, 32)
		return &s
	},
}

// GetIndexList retrieves an empty index slice from the pool.
func GetIndexList() *[]int {
	list := IndexListPool.Get().(*[]int)
	*list = (*list)[:0]
	return list
}

// PutIndexList returns an index slice to the pool.
func PutIndexList(list *[]int) {
	if list != nil {
		*list = (*list)[:0]
		IndexListPool.Put(list)
	}
}
