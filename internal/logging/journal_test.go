package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJournalKey(t *testing.T) {
	assert.Equal(t, "RUN_ID", journalKey("run_id"))
	assert.Equal(t, "STEP", journalKey("step"))
	assert.Equal(t, "A_B_C", journalKey("a-b c"))
	assert.Equal(t, "LEADING", journalKey("_leading"))
}

func TestJournalVars(t *testing.T) {
	vars := journalVars(map[string]interface{}{"step": "tune filesystem", "attempt": 2})
	assert.Equal(t, map[string]string{"STEP": "tune filesystem", "ATTEMPT": "2"}, vars)
}
