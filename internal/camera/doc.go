// Package camera PTZカメラの管理を担う
//
// # 責務
// - 設定されたカメラの登録と削除
// - カメラごとのログイン状態の管理
// - PTZコマンドの中継
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - 複数のカメラをIDで扱いたい
// - ログインの失敗や通信断をカメラの状態として見たい
// - RPCの詳細を意識せずにPTZ操作を送りたい
//
// # 仕様
// - Camera Manager: 複数カメラの統合管理。同じホストは1台として扱う
// - Camera Service: 個別カメラのログイン・切断・再起動・PTZ制御
// - ServiceCreator: 本番用（dahuaクライアント）とテスト用のServiceを切り替える
// - 状態は inactive → active（ログイン成功）/ error（ログインまたは通信失敗）
// - Thread-safe な操作をサポート
package camera
