package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckShellFeatures_CleanCommands(t *testing.T) {
	clean := []string{
		"ls -la",
		"echo $(date)",
		"echo `date`",
		"seq 1 10",
		"echo {1..10}",
		"awk '{print $1, $2}' file.txt",
		"git commit -m 'fix: handle empty response'",
		"tar -czf out.tar.gz dir/",
	}

	for _, cmd := range clean {
		feature, ok := CheckShellFeatures(cmd)
		assert.False(t, ok, "%q flagged as %q", cmd, feature)
	}
}

func TestCheckShellFeatures_ProcessSubstitution(t *testing.T) {
	feature, ok := CheckShellFeatures("diff <(sort a.txt) <(sort b.txt)")
	assert.True(t, ok)
	assert.Equal(t, "process substitution", feature)

	_, ok = CheckShellFeatures("tee >(wc -l)")
	assert.True(t, ok)
}

func TestCheckShellFeatures_HereString(t *testing.T) {
	feature, ok := CheckShellFeatures(`bash <<< "rm -rf /"`)
	assert.True(t, ok)
	assert.Equal(t, "here-string", feature)
}

func TestCheckShellFeatures_IFSManipulation(t *testing.T) {
	feature, ok := CheckShellFeatures(`IFS=, read -r a b <<EOF
x,y
EOF`)
	assert.True(t, ok)
	assert.Equal(t, "IFS manipulation", feature)

	_, ok = CheckShellFeatures("echo hi; IFS=$'\\n' somecmd")
	assert.True(t, ok)

	// IFS inside a word is not an assignment
	_, ok = CheckShellFeatures("grep NOTIFS=x file")
	assert.False(t, ok)
}

func TestCheckShellFeatures_BraceExpansion(t *testing.T) {
	feature, ok := CheckShellFeatures("{r,}m -rf /tmp/x")
	assert.True(t, ok)
	assert.Equal(t, "brace expansion with alternatives", feature)

	_, ok = CheckShellFeatures("rm -rf {/,}")
	assert.True(t, ok)

	_, ok = CheckShellFeatures("cp file{,.bak}")
	assert.True(t, ok)
}

func TestCheckShellFeatures_NestedSubstitution(t *testing.T) {
	feature, ok := CheckShellFeatures("echo $(echo $(whoami))")
	assert.True(t, ok)
	assert.Equal(t, "nested command substitution", feature)

	_, ok = CheckShellFeatures("echo `echo $(whoami)`")
	assert.True(t, ok)

	_, ok = CheckShellFeatures("echo $(echo `whoami`)")
	assert.True(t, ok)

	// Two sibling substitutions are not nesting.
	_, ok = CheckShellFeatures("echo $(date) $(whoami)")
	assert.False(t, ok)
}
