package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bnema/sitepack/internal/entity"
)

// Entity kinds as stored in the kind column. Folders are partitioned
// by appending the folder kind, so document type folders and data type
// folders live in separate namespaces.
const (
	kindMacro        = "macro"
	kindTemplate     = "template"
	kindStylesheet   = "stylesheet"
	kindDataType     = "datatype"
	kindLanguage     = "language"
	kindDictionary   = "dictionary"
	kindDocumentType = "documenttype"
	kindContent      = "content"
	kindFolderPrefix = "folder:"
)

// save persists e under the given lookup columns. A zero id gets one
// assigned before the payload is written, so the payload always
// carries the final id.
func save(q querier, kind string, id *int, key, alias, name string, parentID int, e any) error {
	if *id == 0 {
		res, err := q.Exec(`INSERT INTO entities(kind, payload) VALUES(?, '')`, kind)
		if err != nil {
			return fmt.Errorf("insert %s: %w", kind, err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert %s: %w", kind, err)
		}
		*id = int(newID)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	_, err = q.Exec(
		`INSERT OR REPLACE INTO entities(id, kind, key, alias, name, parent_id, payload) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		*id, kind, key, alias, name, parentID, string(payload),
	)
	if err != nil {
		return fmt.Errorf("save %s %d: %w", kind, *id, err)
	}
	return nil
}

func getBy[T any](q querier, kind, column string, value any) (*T, error) {
	row := q.QueryRow(
		`SELECT payload FROM entities WHERE kind = ? AND `+column+` = ? ORDER BY id LIMIT 1`,
		kind, value,
	)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	var e T
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", kind, err)
	}
	return &e, nil
}

func listBy[T any](q querier, kind, where string, args ...any) ([]*T, error) {
	query := `SELECT payload FROM entities WHERE kind = ?`
	if where != "" {
		query += ` AND ` + where
	}
	query += ` ORDER BY id`
	rows, err := q.Query(query, append([]any{kind}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()
	var out []*T
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		var e T
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", kind, err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func deleteByID(q querier, kind string, id int) error {
	if _, err := q.Exec(`DELETE FROM entities WHERE kind = ? AND id = ?`, kind, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	return nil
}

type macroStore struct{ q querier }

func (s *macroStore) GetByID(id int) (*entity.Macro, error) {
	return getBy[entity.Macro](s.q, kindMacro, "id", id)
}

func (s *macroStore) GetByAlias(alias string) (*entity.Macro, error) {
	return getBy[entity.Macro](s.q, kindMacro, "alias", alias)
}

func (s *macroStore) Save(m *entity.Macro) error {
	return save(s.q, kindMacro, &m.ID, m.Key, m.Alias, m.Name, 0, m)
}

func (s *macroStore) Delete(id int) error {
	return deleteByID(s.q, kindMacro, id)
}

type templateStore struct{ q querier }

func (s *templateStore) GetByID(id int) (*entity.Template, error) {
	return getBy[entity.Template](s.q, kindTemplate, "id", id)
}

func (s *templateStore) GetByAlias(alias string) (*entity.Template, error) {
	return getBy[entity.Template](s.q, kindTemplate, "alias", alias)
}

func (s *templateStore) Save(t *entity.Template) error {
	return save(s.q, kindTemplate, &t.ID, t.Key, t.Alias, t.Name, 0, t)
}

func (s *templateStore) Delete(id int) error {
	return deleteByID(s.q, kindTemplate, id)
}

type stylesheetStore struct{ q querier }

func (s *stylesheetStore) GetByID(id int) (*entity.Stylesheet, error) {
	return getBy[entity.Stylesheet](s.q, kindStylesheet, "id", id)
}

func (s *stylesheetStore) GetByName(name string) (*entity.Stylesheet, error) {
	return getBy[entity.Stylesheet](s.q, kindStylesheet, "name", name)
}

func (s *stylesheetStore) Save(sheet *entity.Stylesheet) error {
	return save(s.q, kindStylesheet, &sheet.ID, "", sheet.Path, sheet.Name, 0, sheet)
}

func (s *stylesheetStore) Delete(id int) error {
	return deleteByID(s.q, kindStylesheet, id)
}

type dataTypeStore struct{ q querier }

func (s *dataTypeStore) GetByID(id int) (*entity.DataType, error) {
	return getBy[entity.DataType](s.q, kindDataType, "id", id)
}

func (s *dataTypeStore) GetByKey(key string) (*entity.DataType, error) {
	return getBy[entity.DataType](s.q, kindDataType, "key", key)
}

func (s *dataTypeStore) Save(d *entity.DataType) error {
	return save(s.q, kindDataType, &d.ID, d.Key, d.EditorAlias, d.Name, d.ParentID, d)
}

func (s *dataTypeStore) Delete(id int) error {
	return deleteByID(s.q, kindDataType, id)
}

type languageStore struct{ q querier }

func (s *languageStore) GetByID(id int) (*entity.Language, error) {
	return getBy[entity.Language](s.q, kindLanguage, "id", id)
}

func (s *languageStore) GetByISO(iso string) (*entity.Language, error) {
	return getBy[entity.Language](s.q, kindLanguage, "alias", iso)
}

func (s *languageStore) GetAll() ([]*entity.Language, error) {
	return listBy[entity.Language](s.q, kindLanguage, "")
}

func (s *languageStore) Save(l *entity.Language) error {
	return save(s.q, kindLanguage, &l.ID, "", l.ISOCode, l.CultureName, 0, l)
}

func (s *languageStore) Delete(id int) error {
	return deleteByID(s.q, kindLanguage, id)
}

type dictionaryStore struct{ q querier }

func (s *dictionaryStore) GetByID(id int) (*entity.DictionaryItem, error) {
	return getBy[entity.DictionaryItem](s.q, kindDictionary, "id", id)
}

func (s *dictionaryStore) GetByItemKey(itemKey string) (*entity.DictionaryItem, error) {
	return getBy[entity.DictionaryItem](s.q, kindDictionary, "alias", itemKey)
}

func (s *dictionaryStore) Save(d *entity.DictionaryItem) error {
	return save(s.q, kindDictionary, &d.ID, d.Key, d.ItemKey, "", 0, d)
}

func (s *dictionaryStore) Delete(id int) error {
	return deleteByID(s.q, kindDictionary, id)
}

type documentTypeStore struct{ q querier }

func (s *documentTypeStore) GetByID(id int) (*entity.DocumentType, error) {
	return getBy[entity.DocumentType](s.q, kindDocumentType, "id", id)
}

func (s *documentTypeStore) GetByAlias(alias string) (*entity.DocumentType, error) {
	return getBy[entity.DocumentType](s.q, kindDocumentType, "alias", alias)
}

func (s *documentTypeStore) Save(d *entity.DocumentType) error {
	return save(s.q, kindDocumentType, &d.ID, d.Key, d.Alias, d.Name, d.ParentID, d)
}

func (s *documentTypeStore) Delete(id int) error {
	return deleteByID(s.q, kindDocumentType, id)
}

type contentStore struct{ q querier }

func (s *contentStore) GetByID(id int) (*entity.Content, error) {
	return getBy[entity.Content](s.q, kindContent, "id", id)
}

func (s *contentStore) GetByKey(key string) (*entity.Content, error) {
	return getBy[entity.Content](s.q, kindContent, "key", key)
}

func (s *contentStore) ChildrenOf(parentID int) ([]*entity.Content, error) {
	return listBy[entity.Content](s.q, kindContent, "parent_id = ?", parentID)
}

func (s *contentStore) Save(c *entity.Content) error {
	return save(s.q, kindContent, &c.ID, c.Key, c.TypeAlias, c.Name, c.ParentID, c)
}

func (s *contentStore) Delete(id int) error {
	return deleteByID(s.q, kindContent, id)
}

type folderStore struct{ q querier }

func (s *folderStore) Get(kind string, id int) (*entity.Folder, error) {
	return getBy[entity.Folder](s.q, kindFolderPrefix+kind, "id", id)
}

func (s *folderStore) GetChild(kind string, parentID int, name string) (*entity.Folder, error) {
	folders, err := listBy[entity.Folder](s.q, kindFolderPrefix+kind, "parent_id = ? AND name = ?", parentID, name)
	if err != nil || len(folders) == 0 {
		return nil, err
	}
	return folders[0], nil
}

func (s *folderStore) Save(kind string, f *entity.Folder) error {
	return save(s.q, kindFolderPrefix+kind, &f.ID, "", "", f.Name, f.ParentID, f)
}
