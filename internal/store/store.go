// Package store persists a scene to a SQLite file.
package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Faultbox/matbind/internal/logger"
	"github.com/Faultbox/matbind/internal/scene"
	"github.com/Faultbox/matbind/pkg/mesh"
)

// FormatVersion is the schema version written to new scene files.
const FormatVersion = 1

// ErrUnsupportedVersion is returned for scene files from a newer release.
var ErrUnsupportedVersion = errors.New("unsupported scene file version")

type objectModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	Kind      string
	Seq       int
	X, Y, Z   float32
	MeshData  []byte // gob-encoded mesh.Mesh
	SlotCount int
}

func (objectModel) TableName() string { return "objects" }

type slotModel struct {
	ObjectID string `gorm:"primaryKey"`
	Slot     int    `gorm:"primaryKey;autoIncrement:false"`
	Material string
}

func (slotModel) TableName() string { return "slots" }

type materialModel struct {
	Name      string `gorm:"primaryKey"`
	ImagePath string
}

func (materialModel) TableName() string { return "materials" }

type metadataModel struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (metadataModel) TableName() string { return "metadata" }

// Store is an open scene file.
type Store struct {
	db   *gorm.DB
	path string
	log  *zap.Logger
}

// Open opens or creates the scene file at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating scene directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening scene %s: %w", path, err)
	}

	if err := db.AutoMigrate(&objectModel{}, &slotModel{}, &materialModel{}, &metadataModel{}); err != nil {
		return nil, fmt.Errorf("migrating scene %s: %w", path, err)
	}

	s := &Store{db: db, path: path, log: logger.Named("store")}
	if err := s.checkVersion(); err != nil {
		s.Close()
		return nil, err
	}

	s.log.Debug("scene opened", zap.String("path", path))
	return s, nil
}

func (s *Store) checkVersion() error {
	var meta metadataModel
	err := s.db.Where(&metadataModel{Key: "format_version"}).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Save(&metadataModel{Key: "format_version", Value: strconv.Itoa(FormatVersion)}).Error
	}
	if err != nil {
		return fmt.Errorf("reading scene metadata: %w", err)
	}

	version, err := strconv.Atoi(meta.Value)
	if err != nil || version > FormatVersion {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, meta.Value)
	}
	return nil
}

// Path returns the scene file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the whole scene.
func (s *Store) Load() (*scene.Scene, error) {
	var objects []objectModel
	if err := s.db.Order("seq").Find(&objects).Error; err != nil {
		return nil, fmt.Errorf("loading objects: %w", err)
	}
	var slots []slotModel
	if err := s.db.Order("object_id, slot").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("loading slots: %w", err)
	}
	var materials []materialModel
	if err := s.db.Find(&materials).Error; err != nil {
		return nil, fmt.Errorf("loading materials: %w", err)
	}

	sc := scene.New()
	for _, m := range materials {
		mat, _ := sc.Materials.GetOrCreate(m.Name)
		mat.ImagePath = m.ImagePath
	}

	bySlot := make(map[string][]slotModel)
	for _, sl := range slots {
		bySlot[sl.ObjectID] = append(bySlot[sl.ObjectID], sl)
	}

	for _, om := range objects {
		id, err := uuid.Parse(om.ID)
		if err != nil {
			return nil, fmt.Errorf("object %s: bad id: %w", om.Name, err)
		}

		obj := &scene.Object{
			ID:       id,
			Name:     om.Name,
			Kind:     scene.Kind(om.Kind),
			Position: mgl32.Vec3{om.X, om.Y, om.Z},
		}
		if len(om.MeshData) > 0 {
			var m mesh.Mesh
			if err := gob.NewDecoder(bytes.NewReader(om.MeshData)).Decode(&m); err != nil {
				return nil, fmt.Errorf("object %s: decoding mesh: %w", om.Name, err)
			}
			obj.Mesh = &m
		}

		obj.Slots = make([]string, om.SlotCount)
		for _, sl := range bySlot[om.ID] {
			if sl.Slot >= 0 && sl.Slot < len(obj.Slots) {
				obj.Slots[sl.Slot] = sl.Material
			}
		}
		if len(obj.Slots) == 0 {
			obj.Slots = nil
		}

		sc.Objects = append(sc.Objects, obj)
	}

	s.log.Debug("scene loaded",
		zap.Int("objects", len(sc.Objects)),
		zap.Int("materials", sc.Materials.Len()))
	return sc, nil
}

// Save rewrites the scene file in a single transaction.
func (s *Store) Save(sc *scene.Scene) error {
	objects := make([]objectModel, 0, len(sc.Objects))
	var slots []slotModel
	for i, obj := range sc.Objects {
		om := objectModel{
			ID:        obj.ID.String(),
			Name:      obj.Name,
			Kind:      string(obj.Kind),
			Seq:       i,
			X:         obj.Position.X(),
			Y:         obj.Position.Y(),
			Z:         obj.Position.Z(),
			SlotCount: len(obj.Slots),
		}
		if obj.Mesh != nil {
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(obj.Mesh); err != nil {
				return fmt.Errorf("object %s: encoding mesh: %w", obj.Name, err)
			}
			om.MeshData = buf.Bytes()
		}
		objects = append(objects, om)

		for idx, name := range obj.Slots {
			slots = append(slots, slotModel{ObjectID: om.ID, Slot: idx, Material: name})
		}
	}

	var materials []materialModel
	if sc.Materials != nil {
		for _, name := range sc.Materials.Names() {
			m, _ := sc.Materials.Get(name)
			materials = append(materials, materialModel{Name: name, ImagePath: m.ImagePath})
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&slotModel{}, &objectModel{}, &materialModel{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		if len(objects) > 0 {
			if err := tx.Create(&objects).Error; err != nil {
				return err
			}
		}
		if len(slots) > 0 {
			if err := tx.Create(&slots).Error; err != nil {
				return err
			}
		}
		if len(materials) > 0 {
			if err := tx.Create(&materials).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving scene %s: %w", s.path, err)
	}

	s.log.Debug("scene saved",
		zap.Int("objects", len(objects)),
		zap.Int("slots", len(slots)),
		zap.Int("materials", len(materials)))
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
