package cache

import (
	"database/sql"
	"sync"

	_ "github.com/glebarez/go-sqlite"
)

type SQLiteStore struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteStore creates a new store with the given filename as the db.
// If file name is empty, a new in-memory db is opened.
func NewSQLiteStore(filename string) SQLiteStore {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		panic(err)
	}
	// seq gives insertion order within a partition; a replaced key gets a new
	// seq and therefore moves to the newest slot
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		partition TEXT NOT NULL,
		key TEXT NOT NULL,
		bytes BLOB,
		UNIQUE (partition, key)
	)`)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS partition_idx ON entries (partition)")
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		panic(err)
	}
	return SQLiteStore{
		db:         db,
		writeMutex: &sync.Mutex{},
	}
}

func (s SQLiteStore) Get(partition, key string) ([]byte, bool, error) {
	var bytes []byte
	err := s.db.QueryRow(
		"SELECT bytes FROM entries WHERE partition = ? AND key = ?",
		partition, key,
	).Scan(&bytes)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return bytes, true, nil
}

func (s SQLiteStore) Put(partition, key string, value []byte) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	// delete first so the replace gets a fresh seq
	if _, err := s.db.Exec("DELETE FROM entries WHERE partition = ? AND key = ?", partition, key); err != nil {
		return err
	}
	_, err := s.db.Exec(
		"INSERT INTO entries (partition, key, bytes) VALUES (?, ?, ?)",
		partition, key, value,
	)
	return err
}

func (s SQLiteStore) Delete(partition, key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM entries WHERE partition = ? AND key = ?", partition, key)
	return err
}

func (s SQLiteStore) Keys(partition string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT key FROM entries WHERE partition = ? ORDER BY seq ASC",
		partition,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s SQLiteStore) Partitions() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT partition FROM entries")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	partitions := make([]string, 0)
	for rows.Next() {
		var partition string
		if err := rows.Scan(&partition); err != nil {
			return partitions, err
		}
		partitions = append(partitions, partition)
	}
	return partitions, rows.Err()
}

func (s SQLiteStore) Drop(partition string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM entries WHERE partition = ?", partition)
	return err
}
