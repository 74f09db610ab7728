// Copyright 2024 The vsdb-go Authors
// This file is part of vsdb-go.
//
// vsdb-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// vsdb-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with vsdb-go. If not, see <http://www.gnu.org/licenses/>.

// Package mdbxkv is the production kv.Backend, an ordered byte-map over an
// MDBX environment: one sub-database (DBI) per area plus one for the meta
// keyspace. This is the backend choice Erigon itself makes for its ordered
// key-value store.
package mdbxkv

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/erigontech/mdbx-go/mdbx"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/erigontech/vsdb-go/kv"
)

const metaDBI = "meta"

func areaDBIName(i uint8) string { return "area" + string(rune('0'+i)) }

// Backend is a kv.Backend over a single MDBX environment.
type Backend struct {
	env      *mdbx.Env
	areaDBIs [kv.AreaCount]mdbx.DBI
	metaDBI  mdbx.DBI

	// writeMu serializes write transactions: spec §5 requires external
	// serialization of writers, but a process-wide mutex here means the
	// package itself upholds that requirement rather than trusting callers.
	writeMu sync.Mutex

	lock *flock.Flock
}

// Options configures how a store is opened.
type Options struct {
	Dir string
	// MaxDBSizeBytes bounds the MDBX map size (geometry upper bound).
	MaxDBSizeBytes int64
	// CacheBytes carries the shared cache size computed by vsdbcfg (clamped
	// to [1GiB,12GiB]). Open does not apply it: the MDBX environment is
	// configured without any cache-size setting.
	CacheBytes int64
}

// Open creates or opens an MDBX-backed store at opts.Dir, guarded by an
// exclusive flock so two processes never attach the same directory.
func Open(opts Options) (*Backend, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "mdbxkv: mkdir")
	}

	lock := flock.New(filepath.Join(opts.Dir, "LOCK"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "mdbxkv: acquire directory lock")
	}
	if !locked {
		return nil, errors.Errorf("mdbxkv: store at %q is already open by another process", opts.Dir)
	}

	env, err := mdbx.NewEnv()
	if err != nil {
		_ = lock.Unlock()
		return nil, errors.Wrap(err, "mdbxkv: new env")
	}
	// 8 areas + 1 meta DBI.
	if err := env.SetMaxDBs(kv.AreaCount + 1); err != nil {
		_ = lock.Unlock()
		return nil, errors.Wrap(err, "mdbxkv: set max dbs")
	}
	if opts.MaxDBSizeBytes > 0 {
		if err := env.SetGeometry(-1, -1, int(opts.MaxDBSizeBytes), -1, -1, -1); err != nil {
			_ = lock.Unlock()
			return nil, errors.Wrap(err, "mdbxkv: set geometry")
		}
	}
	if err := env.Open(opts.Dir, mdbx.Coalesce|mdbx.LifoReclaim, 0o644); err != nil {
		_ = lock.Unlock()
		return nil, errors.Wrap(err, "mdbxkv: open env")
	}

	be := &Backend{env: env, lock: lock}
	if err := be.openDBIs(); err != nil {
		_ = env.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return be, nil
}

func (b *Backend) openDBIs() error {
	return b.env.Update(func(txn *mdbx.Txn) error {
		for i := uint8(0); i < kv.AreaCount; i++ {
			dbi, err := txn.OpenDBI(areaDBIName(i), mdbx.Create, nil, nil)
			if err != nil {
				return errors.Wrapf(err, "mdbxkv: open dbi for area %d", i)
			}
			b.areaDBIs[i] = dbi
		}
		dbi, err := txn.OpenDBI(metaDBI, mdbx.Create, nil, nil)
		if err != nil {
			return errors.Wrap(err, "mdbxkv: open meta dbi")
		}
		b.metaDBI = dbi
		return nil
	})
}

func (b *Backend) AreaCount() int { return kv.AreaCount }

func (b *Backend) Get(areaIdx uint8, key []byte) ([]byte, error) {
	var out []byte
	err := b.env.View(func(txn *mdbx.Txn) error {
		v, err := txn.Get(b.areaDBIs[areaIdx], key)
		if mdbx.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		out = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "mdbxkv: get")
	}
	return out, nil
}

func (b *Backend) Put(areaIdx uint8, key, value []byte) ([]byte, error) {
	b.writeMu.Lock()
	var old []byte
	err := b.env.Update(func(txn *mdbx.Txn) error {
		if prev, err := txn.Get(b.areaDBIs[areaIdx], key); err == nil {
			old = append([]byte{}, prev...)
		} else if !mdbx.IsNotFound(err) {
			return err
		}
		return txn.Put(b.areaDBIs[areaIdx], key, value, 0)
	})
	// Released before UpdateMaxKeyLen, whose PutMeta takes writeMu itself.
	b.writeMu.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "mdbxkv: put")
	}
	if err := kv.UpdateMaxKeyLen(b, len(key)); err != nil {
		return nil, err
	}
	return old, nil
}

func (b *Backend) Delete(areaIdx uint8, key []byte) ([]byte, error) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	var old []byte
	err := b.env.Update(func(txn *mdbx.Txn) error {
		prev, err := txn.Get(b.areaDBIs[areaIdx], key)
		if mdbx.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		old = append([]byte{}, prev...)
		return txn.Del(b.areaDBIs[areaIdx], key, nil)
	})
	if err != nil {
		return nil, errors.Wrap(err, "mdbxkv: delete")
	}
	return old, nil
}

func (b *Backend) Cursor(areaIdx uint8, prefix []byte) (kv.Cursor, error) {
	return b.Range(areaIdx, prefix, kv.Bounds{})
}

func (b *Backend) Range(areaIdx uint8, prefix []byte, bounds kv.Bounds) (kv.Cursor, error) {
	txn, err := b.env.BeginTxn(nil, mdbx.Readonly)
	if err != nil {
		return nil, errors.Wrap(err, "mdbxkv: begin ro txn")
	}
	cur, err := txn.OpenCursor(b.areaDBIs[areaIdx])
	if err != nil {
		txn.Abort()
		return nil, errors.Wrap(err, "mdbxkv: open cursor")
	}

	maxLen, err := kv.MaxKeyLen(b)
	if err != nil {
		cur.Close()
		txn.Abort()
		return nil, err
	}

	lower := append(append([]byte{}, prefix...), bounds.EffectiveLower()...)
	upper := kv.ReverseSentinel(prefix, maxLen)
	if eu := bounds.EffectiveUpper(); eu != nil {
		upper = append(append([]byte{}, prefix...), eu...)
	}

	return &rangeCursor{txn: txn, cur: cur, prefix: prefix, lower: lower, upper: upper}, nil
}

func (b *Backend) GetMeta(key byte) ([]byte, error) {
	var out []byte
	err := b.env.View(func(txn *mdbx.Txn) error {
		v, err := txn.Get(b.metaDBI, []byte{key})
		if mdbx.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		out = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "mdbxkv: get meta")
	}
	return out, nil
}

func (b *Backend) PutMeta(key byte, value []byte) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	err := b.env.Update(func(txn *mdbx.Txn) error {
		return txn.Put(b.metaDBI, []byte{key}, value, 0)
	})
	if err != nil {
		return errors.Wrap(err, "mdbxkv: put meta")
	}
	return nil
}

func (b *Backend) Flush() error {
	return b.env.Sync(true, false)
}

func (b *Backend) Close() error {
	b.env.Close()
	if b.lock != nil {
		return b.lock.Unlock()
	}
	return nil
}
