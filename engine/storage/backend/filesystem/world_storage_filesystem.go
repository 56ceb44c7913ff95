package worldstoragefilesystem

import (
	"os"
	"path/filepath"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/netutil"
	. "github.com/xiaonanln/worldsync/engine/storage/storage_common"
	"github.com/xiaonanln/worldsync/engine/world"
)

var (
	dataPacker = netutil.JSON_PACKER
)

const (
	_CHUNK_PREFIX  = "chunk$"
	_ENTITY_PREFIX = "entities$"
)

type fileSystemWorldStorage struct {
	directory string
}

// OpenDirectory opens a directory as world storage, one JSON file per record
func OpenDirectory(directory string) (WorldStorage, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}

	return &fileSystemWorldStorage{
		directory: directory,
	}, nil
}

func (ws *fileSystemWorldStorage) getFilePath(prefix string, key common.ChunkKey) string {
	return filepath.Join(ws.directory, prefix+KeyString(key)+".json")
}

func (ws *fileSystemWorldStorage) write(path string, data interface{}) error {
	dataBytes, err := dataPacker.PackMsg(data, nil)
	if err != nil {
		return err
	}

	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("Saving to file %s: %d bytes", path, len(dataBytes))
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, dataBytes, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// read returns false if the file does not exist
func (ws *fileSystemWorldStorage) read(path string, data interface{}) (bool, error) {
	dataBytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if err := dataPacker.UnpackMsg(dataBytes, data); err != nil {
		return false, err
	}
	return true, nil
}

func (ws *fileSystemWorldStorage) ReadChunk(key common.ChunkKey) (*world.Chunk, error) {
	var chunk world.Chunk
	found, err := ws.read(ws.getFilePath(_CHUNK_PREFIX, key), &chunk)
	if !found || err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (ws *fileSystemWorldStorage) WriteChunk(chunk *world.Chunk) error {
	return ws.write(ws.getFilePath(_CHUNK_PREFIX, chunk.Key), chunk)
}

func (ws *fileSystemWorldStorage) ReadEntities(area common.ChunkKey) ([]world.EntityRecord, bool, error) {
	var records []world.EntityRecord
	found, err := ws.read(ws.getFilePath(_ENTITY_PREFIX, area), &records)
	return records, found, err
}

func (ws *fileSystemWorldStorage) WriteEntities(area common.ChunkKey, records []world.EntityRecord) error {
	if records == nil {
		records = []world.EntityRecord{}
	}
	return ws.write(ws.getFilePath(_ENTITY_PREFIX, area), records)
}

func (ws *fileSystemWorldStorage) Close() {
	// need to do nothing
}

func (ws *fileSystemWorldStorage) IsEOF(err error) bool {
	return false
}
