package worldstoragemongodb

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/gwlog"
	"github.com/xiaonanln/worldsync/engine/storage/storage_common"
	"github.com/xiaonanln/worldsync/engine/world"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const (
	_DEFAULT_DB_NAME     = "worldsync"
	_CHUNK_COLLECTION    = "chunks"
	_ENTITIES_COLLECTION = "entities"
)

type mongoDBWorldStorage struct {
	db *mgo.Database
}

type chunkDoc struct {
	ID    string       `bson:"_id"`
	Chunk *world.Chunk `bson:"chunk"`
}

type entitiesDoc struct {
	ID      string               `bson:"_id"`
	Records []world.EntityRecord `bson:"records"`
}

// OpenMongoDB opens mongodb as world storage
func OpenMongoDB(url string, dbname string) (storagecommon.WorldStorage, error) {
	gwlog.Debugf("Connecting MongoDB ...")
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "mongodb dial failed")
	}

	session.SetMode(mgo.Monotonic, true)
	if dbname == "" {
		// if db is not specified, use default
		dbname = _DEFAULT_DB_NAME
	}
	return &mongoDBWorldStorage{
		db: session.DB(dbname),
	}, nil
}

func (ws *mongoDBWorldStorage) ReadChunk(key common.ChunkKey) (*world.Chunk, error) {
	var doc chunkDoc
	err := ws.db.C(_CHUNK_COLLECTION).FindId(storagecommon.KeyString(key)).One(&doc)
	if err == mgo.ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return doc.Chunk, nil
}

func (ws *mongoDBWorldStorage) WriteChunk(chunk *world.Chunk) error {
	id := storagecommon.KeyString(chunk.Key)
	_, err := ws.db.C(_CHUNK_COLLECTION).UpsertId(id, chunkDoc{ID: id, Chunk: chunk})
	return err
}

func (ws *mongoDBWorldStorage) ReadEntities(area common.ChunkKey) ([]world.EntityRecord, bool, error) {
	var doc entitiesDoc
	err := ws.db.C(_ENTITIES_COLLECTION).FindId(storagecommon.KeyString(area)).One(&doc)
	if err == mgo.ErrNotFound {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return doc.Records, true, nil
}

func (ws *mongoDBWorldStorage) WriteEntities(area common.ChunkKey, records []world.EntityRecord) error {
	id := storagecommon.KeyString(area)
	_, err := ws.db.C(_ENTITIES_COLLECTION).UpsertId(id, bson.M{"$set": bson.M{"records": records}})
	return err
}

func (ws *mongoDBWorldStorage) Close() {
	ws.db.Session.Close()
}

func (ws *mongoDBWorldStorage) IsEOF(err error) bool {
	err = errors.Cause(err)
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
