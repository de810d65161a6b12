package model

// ConfigEntry is one configured appliance.
type ConfigEntry struct {
	EntryID string `json:"entry_id"`
	Host    string `json:"host"`  // gateway topic segment of the device
	Model   string `json:"model"` // e.g. "AC0850/11"
	Name    string `json:"name"`  // prefix of every switch name
}

type Config struct {
	Entries []*ConfigEntry `json:"entries"` // Ordered slice
}

// Entry returns the entry with the given id, or nil.
func (c *Config) Entry(id string) *ConfigEntry {
	for _, e := range c.Entries {
		if e.EntryID == id {
			return e
		}
	}
	return nil
}
