package vecsync

import (
	"fmt"
	"strings"
)

// TriggerNames returns the insert, delete and update trigger names for b.
func TriggerNames(b Binding) []string {
	base := sanitizeIdentifier(b.Table)
	return []string{base + "_after_insert", base + "_after_delete", base + "_after_update"}
}

// SQLiteIndexTriggers returns AFTER INSERT/DELETE/UPDATE trigger definitions
// mirroring b.Table into b.Shadow using SQLite syntax. The update trigger only
// fires when the key or the embedding changes.
func SQLiteIndexTriggers(b Binding) []string {
	b = b.WithDefaults()
	names := TriggerNames(b)
	insert := func(alias string) string {
		return fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (%[2]s.%[3]s, %[2]s.%[4]s);`, b.Shadow, alias, b.Key, b.Column)
	}
	remove := fmt.Sprintf(`DELETE FROM %s WHERE rowid = OLD.%s;`, b.Shadow, b.Key)

	insertTrig := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s AFTER INSERT ON %s
BEGIN
    %s
END`, names[0], b.Table, insert("NEW"))

	deleteTrig := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s AFTER DELETE ON %s
BEGIN
    %s
END`, names[1], b.Table, remove)

	updateTrig := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s AFTER UPDATE OF %s, %s ON %s
BEGIN
    %s
    %s
END`, names[2], b.Key, b.Column, b.Table, remove, insert("NEW"))

	return []string{insertTrig, deleteTrig, updateTrig}
}

// DropTriggers returns DROP TRIGGER statements for the triggers of b.
func DropTriggers(b Binding) []string {
	var ret []string
	for _, name := range TriggerNames(b) {
		ret = append(ret, "DROP TRIGGER IF EXISTS "+name)
	}
	return ret
}

// ResyncSQL returns statements that rebuild the shadow from the primary table.
func ResyncSQL(b Binding) []string {
	b = b.WithDefaults()
	return []string{
		fmt.Sprintf("DELETE FROM %s", b.Shadow),
		fmt.Sprintf("INSERT INTO %s(rowid, embedding) SELECT %s, %s FROM %s", b.Shadow, b.Key, b.Column, b.Table),
	}
}

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	replacer := strings.NewReplacer(".", "_", "-", "_")
	return replacer.Replace(name)
}
