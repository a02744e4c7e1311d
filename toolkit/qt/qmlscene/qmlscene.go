// qmlscene runs an in-process QML frontend for the Qt toolkit.
//
// qmlscene combines https://github.com/special/qgoscene with a
// native.Connection: the QML scene is the native frontend, reached over a
// pair of OS pipes whose descriptors are passed on the scene's command
// line. qgoscene links to Qt directly.
//
// In simple cases, an application can execute with:
//
//	app := client.NewApplication(qmlscene.Toolkit())
//	shell.Show(ctx, app, root)
//	qmlscene.ExecScene("main.qml")
package qmlscene

import (
	"fmt"
	"os"

	"github.com/special/qgoscene"

	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/toolkit/qt"
)

var connection *native.Connection
var scene *qgoscene.Scene
var rB, wB, rF, wF *os.File

// Connection returns the connection to the scene, creating it on first
// use. Options apply only to that first call.
func Connection(opts ...native.Option) *native.Connection {
	if connection == nil {
		var err error
		if rB, wB, err = os.Pipe(); err != nil {
			panic(fmt.Sprintf("qmlscene: %v", err))
		}
		if rF, wF, err = os.Pipe(); err != nil {
			panic(fmt.Sprintf("qmlscene: %v", err))
		}
		connection = native.NewConnectionSplit(rF, wB, opts...)
	}
	return connection
}

// Toolkit returns the Qt toolkit backed by the scene connection.
func Toolkit() *client.Toolkit {
	return qt.New(Connection())
}

func sceneArgs() []string {
	Connection()
	return append(os.Args, "-enaml", fmt.Sprintf("fd:%d,%d", rB.Fd(), wF.Fd()))
}

func Scene() *qgoscene.Scene {
	return scene
}

func LoadScene(qmlRootFile string) *qgoscene.Scene {
	if scene != nil {
		panic("qmlscene does not support multiple scenes")
	}
	scene = qgoscene.NewScene(qmlRootFile, sceneArgs())
	return scene
}

func LoadSceneData(qmlString string) *qgoscene.Scene {
	if scene != nil {
		panic("qmlscene does not support multiple scenes")
	}
	scene = qgoscene.NewSceneData(qmlString, sceneArgs())
	return scene
}

// Exec processes the connection in the background, unless the caller
// already runs it, and runs the scene until it quits. It then exits the
// process with the scene's status. Native signals are delivered on the
// processing goroutine.
func Exec() {
	if scene == nil {
		panic("qmlscene executed without a scene loaded")
	}
	if !connection.Running() {
		go connection.Run()
	}
	os.Exit(scene.Exec())
}

func ExecScene(qmlRootFile string) {
	LoadScene(qmlRootFile)
	Exec()
}

func ExecSceneData(qmlString string) {
	LoadSceneData(qmlString)
	Exec()
}
