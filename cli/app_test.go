package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
	"go.viam.com/test"
)

const samplesCSV = `t,gx,gy,gz,ax,ay,az
0.00,0.01,0.00,0.10,0.2,0.0,-9.81
0.01,0.01,0.00,0.10,0.2,0.0,-9.81
0.02,0.01,0.00,0.10,0.2,0.0,-9.81
0.03,0.01,0.00,0.10,0.2,0.0,-9.81
`

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"se23"}, args...))
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestParseFloats(t *testing.T) {
	values, err := parseFloats("1, -2.5,3e-4")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []float64{1, -2.5, 3e-4})

	values, err = parseFloats("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldBeEmpty)

	_, err = parseFloats("1,x,3")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "element 1")
}

func TestFunctionsCommand(t *testing.T) {
	out, _, err := runApp(t, "functions")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "preintegrate")
	test.That(t, out, test.ShouldContainSubstring, "pose23_se23_from_tangent")

	out, _, err = runApp(t, "functions", "rotation_matrix")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Matrix33")

	_, _, err = runApp(t, "functions", "nope")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEvaluateCommand(t *testing.T) {
	out, _, err := runApp(t, "evaluate", "pose23_se23_from_tangent", "0,0,0,0,0,0,0,0,0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0")

	out, _, err = runApp(t, "evaluate", "pose23_to_tangent", "1,0,0,0,1,0,0,0,1,4,5,6,-1,-2,-3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "4, 5, 6, -1, -2, -3")

	_, _, err = runApp(t, "evaluate", "pose23_se23_from_tangent", "0,0,0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dimension mismatch")

	for _, epsilon := range []string{"0", "-1e-9"} {
		_, _, err = runApp(t, "--epsilon="+epsilon, "evaluate", "pose23_se23_from_tangent", "0,0,0,0,0,0,0,0,0")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid epsilon")
	}
	_, _, err = runApp(t, "--epsilon", "0", "jacobian", "--wrt", "rot", "--output", "matrix", "rotation_matrix", "1,0,0,0,1,0,0,0,1")
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = runApp(t, "evaluate")
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = runApp(t, "evaluate", "nope")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestJacobianCommand(t *testing.T) {
	out, _, err := runApp(t, "jacobian", "--wrt", "rot", "--output", "matrix", "rotation_matrix", "1,0,0,0,1,0,0,0,1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldStartWith, "d(matrix)/d(rot) =")

	_, _, err = runApp(t, "jacobian", "--wrt", "x", "--output", "matrix", "rotation_matrix", "1,0,0,0,1,0,0,0,1")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPreintegrateCommand(t *testing.T) {
	samples := writeFile(t, "still.csv", samplesCSV)

	out, _, err := runApp(t, "preintegrate", "--gyro-noise", "1e-4,1e-4,1e-4", "--accel-noise", "1e-2,1e-2,1e-2", samples)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "still.csv")
	test.That(t, out, test.ShouldContainSubstring, "0.03")

	out, _, err = runApp(t, "preintegrate", "--json", "--parallel",
		"--gyro-noise", "1e-4,1e-4,1e-4", "--accel-noise", "1e-2,1e-2,1e-2", "--gyro-bias", "0.01,0,0",
		samples, samples)
	test.That(t, err, test.ShouldBeNil)
	var results []chainResult
	test.That(t, json.Unmarshal([]byte(out), &results), test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, 2)
	test.That(t, results[0].Samples, test.ShouldEqual, 4)
	test.That(t, results[0].Storage, test.ShouldHaveLength, 60)
	test.That(t, results[0].Storage, test.ShouldResemble, results[1].Storage)

	_, _, err = runApp(t, "preintegrate", samples)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"noise" is required`)

	_, _, err = runApp(t, "preintegrate")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPreintegrateWithConfig(t *testing.T) {
	cfg := writeFile(t, "imu.json", `{"noise": {"gyro": [1e-4, 1e-4, 1e-4], "accel": [0.01, 0.01, 0.01]}}`)
	samples := writeFile(t, "still.csv", samplesCSV)

	out, _, err := runApp(t, "--config", cfg, "preintegrate", "--json", samples)
	test.That(t, err, test.ShouldBeNil)
	var results []chainResult
	test.That(t, json.Unmarshal([]byte(out), &results), test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, 1)
	// three steps of 0.01s: no longer at the identity
	test.That(t, strings.HasPrefix(out, "["), test.ShouldBeTrue)
	test.That(t, results[0].Storage[se23PositionZ], test.ShouldBeLessThan, 0)

	_, _, err = runApp(t, "--config", filepath.Join(t.TempDir(), "missing.json"), "preintegrate", samples)
	test.That(t, err, test.ShouldNotBeNil)

	// flags complete a config that has no noise section
	prior := writeFile(t, "prior.json", `{"prior_covariance": [1, 1, 1, 1, 1, 1, 1, 1, 1]}`)
	out, _, err = runApp(t, "--config", prior, "preintegrate", "--json", "--gyro-noise", "1,1,1", "--accel-noise", "1,1,1", samples)
	test.That(t, err, test.ShouldBeNil)
	results = nil
	test.That(t, json.Unmarshal([]byte(out), &results), test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, 1)
	_, _, err = runApp(t, "--config", prior, "preintegrate", samples)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"noise" is required`)

	bad := writeFile(t, "bad.csv", "t,gx\n0,1\n")
	_, _, err = runApp(t, "--config", cfg, "preintegrate", bad)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bad.csv")
}

// index of the z position in pose storage
const se23PositionZ = 14

func TestLogFile(t *testing.T) {
	samples := writeFile(t, "still.csv", samplesCSV)
	logFile := filepath.Join(t.TempDir(), "se23.log")

	_, _, err := runApp(t, "--debug", "--log-file", logFile,
		"preintegrate", "--gyro-noise", "1,1,1", "--accel-noise", "1,1,1", samples)
	test.That(t, err, test.ShouldBeNil)
	contents, err := os.ReadFile(logFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "preintegrated sample")
}

func TestLogFileOpenedOnce(t *testing.T) {
	cfg := writeFile(t, "imu.json", `{"noise": {"gyro": [1, 1, 1], "accel": [1, 1, 1]}, "debug": true}`)
	samples := writeFile(t, "still.csv", samplesCSV)
	logFile := filepath.Join(t.TempDir(), "se23.log")

	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	var opened int
	app.After = func(c *cli.Context) error {
		logFileMu.Lock()
		opened = len(logFiles)
		logFileMu.Unlock()
		return closeLogFile()
	}
	err := app.Run([]string{"se23", "--config", cfg, "--log-file", logFile, "preintegrate", samples})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opened, test.ShouldEqual, 1)

	contents, err := os.ReadFile(logFile)
	test.That(t, err, test.ShouldBeNil)
	// debug from the config file applies to the same logger that read it
	test.That(t, string(contents), test.ShouldContainSubstring, "preintegrated sample")
}
